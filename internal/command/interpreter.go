package command

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/csmouse/csmouse/internal/repo"
)

// Outcome classifies a handled command so the transport layer can map it to a
// response code without inspecting the reply text.
type Outcome int

const (
	// Success: the command changed registration state; Reply carries the
	// confirmation to send back.
	Success Outcome = iota
	// Conflict: the command was valid but redundant (already registered).
	Conflict
	// Ignored: unrecognized or inapplicable command; no reply, no state
	// change. Deliberately silent so malformed input learns nothing about
	// internal state.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Conflict:
		return "conflict"
	default:
		return "ignored"
	}
}

// Reply copy. The register confirmation must always mention STOP, since the
// stop transition is what that promise commits us to.
const (
	msgRegistered        = "You will now receive notifications through CS Mouse. You can stop messages at any time by replying 'STOP'."
	msgAlreadyRegistered = "You are already registered."
	msgStopped           = "You will no longer receive CS Mouse notifications."
)

type Result struct {
	Outcome Outcome
	Reply   string
}

// Interpreter evaluates inbound SMS commands against the registration store.
// Callers must have authenticated the sender before invoking it; the
// interpreter does no signature work.
type Interpreter struct {
	registry repo.RegistrationStore
	log      *zap.Logger
}

func NewInterpreter(registry repo.RegistrationStore, log *zap.Logger) *Interpreter {
	return &Interpreter{registry: registry, log: log}
}

// Handle interprets one command from a verified sender. Matching is exact
// after trimming and lowercasing.
func (i *Interpreter) Handle(ctx context.Context, from, body string) (Result, error) {
	cmd := strings.ToLower(strings.TrimSpace(body))

	switch cmd {
	case "register":
		registered, err := i.registry.IsRegistered(ctx, from)
		if err != nil {
			return Result{}, fmt.Errorf("is registered: %w", err)
		}
		if registered {
			i.log.Info("register_duplicate", zap.String("from", from))
			return Result{Outcome: Conflict, Reply: msgAlreadyRegistered}, nil
		}
		if err := i.registry.Register(ctx, from); err != nil {
			return Result{}, fmt.Errorf("register: %w", err)
		}
		i.log.Info("registered", zap.String("from", from))
		return Result{Outcome: Success, Reply: msgRegistered}, nil

	case "stop":
		registered, err := i.registry.IsRegistered(ctx, from)
		if err != nil {
			return Result{}, fmt.Errorf("is registered: %w", err)
		}
		if !registered {
			// Not registered: stay silent rather than confirm or deny.
			return Result{Outcome: Ignored}, nil
		}
		if err := i.registry.Unregister(ctx, from); err != nil {
			return Result{}, fmt.Errorf("unregister: %w", err)
		}
		i.log.Info("unregistered", zap.String("from", from))
		return Result{Outcome: Success, Reply: msgStopped}, nil

	default:
		i.log.Info("command_ignored", zap.String("from", from))
		return Result{Outcome: Ignored}, nil
	}
}
