// Package cli implements the sessionctl command.
//
// Actions are executed in order against one session, so a single invocation can
// log in and fetch the protected resource:
//
//	sessionctl -u http://localhost:8080 -n user -p secret login fetch
//
// Credentials may come from flags, environment or an encrypted scy secret (--secrets, --key).
// With --store the token pair is persisted, which lets later invocations reuse the session.
package cli
