// Package cli is the presentation layer: an interactive prompt loop over the
// login and verification flows. While a submit is in flight the loop blocks,
// so no two submissions of the same flow can overlap, which is the contract
// the flow controllers expect.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/entregasmx/entregas-cli/internal/clients/authapi"
	"github.com/entregasmx/entregas-cli/internal/entity"
	"github.com/entregasmx/entregas-cli/internal/service"
	"github.com/entregasmx/entregas-cli/internal/session"
	"github.com/entregasmx/entregas-cli/pkg/logger"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	api    authapi.ClientInterface
	store  *session.Store
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(api authapi.ClientInterface, store *session.Store) *App {
	return &App{
		api:    api,
		store:  store,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run starts the command loop. It returns on EOF, "exit"/"quit", or context
// cancellation.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "entregas %s> ", a.status())

		if ctx.Err() != nil || !scanner.Scan() {
			return
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmdCtx := ctx
		if s, ok := a.store.Current(); ok {
			cmdCtx = logger.SetUserID(ctx, s.User.ID)
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(a.out, "Comandos: login, verify-email, resend, whoami, logout, exit")

		case "login":
			_ = a.Login(cmdCtx)

		case "verify-email":
			_ = a.VerifyEmail(cmdCtx)

		case "resend":
			_ = a.ResendCode(cmdCtx)

		case "whoami":
			a.WhoAmI()

		case "logout":
			_ = a.Logout(cmdCtx)

		case "exit", "quit":
			return

		default:
			fmt.Fprintf(a.out, "Comando desconocido: %s (prueba 'help')\n", parts[0])
		}
	}
}

func (a *App) status() string {
	if s, ok := a.store.Current(); ok {
		return s.User.Email
	}

	return "anónimo"
}

// Login walks the two-step flow: credentials, then the SMS code if the
// server requests one. "back" on the code prompt returns to the beginning.
func (a *App) Login(ctx context.Context) error {
	flow := service.NewLoginFlow(a.api, a.store)

	email, err := getSimpleText(a.reader, "Correo electrónico", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	if err := flow.SubmitCredentials(ctx, email, password); err != nil {
		fmt.Fprintln(a.out, flow.Err())
		return err
	}

	for flow.Step() == service.StepSecondFactor {
		code, err := getSimpleText(a.reader, "Código SMS de 6 dígitos ('back' para volver)", a.out)
		if err != nil {
			return err
		}

		if code == "back" {
			flow.GoBack()
			fmt.Fprintln(a.out, "Inicio de sesión cancelado.")
			return nil
		}

		if err := flow.SubmitSecondFactor(ctx, code); err != nil {
			fmt.Fprintln(a.out, flow.Err())
		}
	}

	if warn := flow.CommitWarning(); warn != "" {
		fmt.Fprintln(a.out, warn)
	}

	// Success is announced first; navigation happens only once the user
	// acknowledges, mirroring the confirm-then-redirect of the web client.
	fmt.Fprintln(a.out, "¡Bienvenido! Sesión iniciada correctamente.")

	if _, err := getSimpleText(a.reader, "Pulsa Enter para continuar", a.out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if route, ok := flow.Acknowledge(); ok {
		fmt.Fprintf(a.out, "Abriendo %s\n", route)
	}

	return nil
}

func (a *App) VerifyEmail(ctx context.Context) error {
	flow := service.NewVerifyFlow(a.api)

	code, err := getSimpleText(a.reader, "Código de verificación (6 dígitos)", a.out)
	if err != nil {
		return err
	}

	result, err := flow.Submit(ctx, code)
	if err != nil {
		fmt.Fprintln(a.out, flow.Err())
		return err
	}

	switch result.Outcome {
	case service.OutcomeAlreadyVerified:
		fmt.Fprintln(a.out, "La cuenta ya estaba verificada.")
	case service.OutcomeVerified:
		fmt.Fprintln(a.out, "¡Correo verificado!")
	}

	fmt.Fprintf(a.out, "Continúa en %s\n", result.NavigateTo)

	return nil
}

func (a *App) ResendCode(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Correo electrónico", a.out)
	if err != nil {
		return err
	}

	flow := service.NewVerifyFlow(a.api)

	err = flow.ResendCode(ctx, email)
	if errors.Is(err, entity.ErrNotImplemented) {
		fmt.Fprintln(a.out, "El reenvío de códigos aún no está disponible.")
		return nil
	}

	return err
}

func (a *App) WhoAmI() {
	s, ok := a.store.Current()
	if !ok {
		fmt.Fprintln(a.out, "No has iniciado sesión.")
		return
	}

	fmt.Fprintf(a.out, "%s %s %s <%s> (%s)\n",
		s.User.FirstName, s.User.LastNameFather, s.User.LastNameMother, s.User.Email, s.User.Role)
}

func (a *App) Logout(ctx context.Context) error {
	if _, ok := a.store.Current(); !ok {
		fmt.Fprintln(a.out, "No has iniciado sesión.")
		return nil
	}

	if err := a.store.Clear(ctx); err != nil {
		fmt.Fprintln(a.out, "Advertencia: la sesión local no se pudo borrar por completo.")
		return err
	}

	fmt.Fprintln(a.out, "Sesión cerrada.")

	return nil
}
