// Package cli provides the Serviya command-line client.
//
// It wires configuration, the encrypted local credential store, the HTTP API
// client, and a small set of one-shot commands. Typical flow: log in once,
// then run commands against the stored session until logout.
//
// Commands:
//   - login / register: obtain a session and persist it locally
//   - status: show the stored session and verify it against the server
//   - upload: send files with the authenticated multipart uploader
//   - logout: revoke the session server-side and wipe it locally
//
// Commands are dispatched via App.Run(ctx, args), which returns when the
// command finishes.
package cli
