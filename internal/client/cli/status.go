package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serviya/serviya-go/internal/common"
)

// profilePath is the endpoint used to verify a stored session.
const profilePath = "/api/usuarios/perfil/"

// Status reports the locally stored session and, when one exists, verifies
// it against the server. An expired session is reported, not an error.
func (a *App) Status(ctx context.Context) error {
	stored, err := a.store.HasStored(ctx)
	if err != nil {
		return err
	}
	if !stored {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	if err := a.store.Load(ctx); err != nil {
		return err
	}
	creds := a.store.Snapshot()
	if !creds.Authenticated() {
		// Stored rows existed but did not decode into a usable session.
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "Logged in as user %d (%s)\n", creds.UserID, creds.Role)
	fmt.Fprintf(a.out, "Session expires %s\n", creds.ExpiresAt.Format(time.RFC3339))

	if _, err := a.api.Get(ctx, profilePath); err != nil {
		switch {
		case errors.Is(err, common.ErrSessionExpired):
			fmt.Fprintln(a.out, "Server check: session expired, log in again.")
		case errors.Is(err, common.ErrUnavailable), errors.Is(err, common.ErrTimeout):
			fmt.Fprintln(a.out, "Server check: server unreachable.")
		default:
			return err
		}
		return nil
	}

	fmt.Fprintln(a.out, "Server check: session valid.")
	return nil
}
