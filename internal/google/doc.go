// Package google obtains OAuth2 credentials for the Gmail API on behalf of
// the mailbox owner.
//
// Client credentials come from a Google "installed app" client secret file
// (credentials.json). The resulting user token is cached in a token file
// (token.json) together with the scopes it was granted, so later runs reuse
// or silently refresh it. When no usable token exists the user is sent
// through a browser consent flow that redirects back to a loopback listener
// on 127.0.0.1. The flow is protected by a random state value and PKCE.
//
// The token file uses the same JSON layout as Google's Python auth
// libraries, so a token.json written by those tools is accepted as is.
package google
