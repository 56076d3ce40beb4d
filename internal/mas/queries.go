package mas

// GraphQL operations for the authentication service API.

const opSessionList = "OAuth2SessionList"

const querySessionList = `
query OAuth2SessionList($userId: ID!, $first: Int!, $after: String, $state: SessionState) {
  user(id: $userId) {
    id
    oauth2Sessions(first: $first, after: $after, state: $state) {
      totalCount
      edges {
        cursor
        node {
          id
          scope
          createdAt
          finishedAt
          lastActiveAt
          lastActiveIp
          client {
            id
            clientId
            clientName
            clientUri
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`

const opViewer = "Viewer"

const queryViewer = `
query Viewer {
  viewer {
    __typename
    ... on User {
      id
      username
    }
  }
}
`
