package tmpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return created.Add(3 * time.Hour) }
	t.Cleanup(func() { now = orig })

	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "{{ .ID }} {{ .Client }}",
			data: map[string]string{"ID": "01H8", "Client": "Element"},
			want: "01H8 Element",
		},
		{
			name: "struct data with relative time",
			tmpl: "{{ .Client }} created {{ ago .CreatedAt }}",
			data: struct {
				Client    string
				CreatedAt time.Time
			}{Client: "Element", CreatedAt: created},
			want: "Element created 3 hours ago",
		},
		{
			name: "nil time pointer",
			tmpl: "last active {{ ago .LastActiveAt }}",
			data: struct{ LastActiveAt *time.Time }{},
			want: "last active never",
		},
		{
			name: "join and upper",
			tmpl: `{{ upper .State }}: {{ join .Scopes "," }}`,
			data: map[string]any{"State": "active", "Scopes": []string{"openid", "email"}},
			want: "ACTIVE: openid,email",
		},
		{
			name:    "missing key errors",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{},
			wantErr: true,
		},
		{
			name:    "invalid syntax errors",
			tmpl:    "{{ .ID",
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Reuse(t *testing.T) {
	tpl, err := Parse("{{ .ID }}")
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		got, err := tpl.Render(map[string]string{"ID": id})
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}
