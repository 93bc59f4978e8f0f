// Package refresh exchanges the stored refresh token for a new access token.
//
// Concurrent callers are coalesced: while a refresh is in flight every other
// caller waits for the same outcome instead of issuing its own request. The
// request itself is detached from the callers' cancellation, so a caller that
// gives up does not fail the refresh for the remaining waiters.
//
// Example:
//
//	refresher := refresh.New(baseURL+"/api/refresh-token", aStore)
//	accessToken, err := refresher.Refresh(ctx)
//	if sessionerr.IsSessionExpired(err) {
//		// prompt for a new login
//	}
package refresh
