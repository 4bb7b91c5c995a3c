package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/DarwinOsingo/Afrigene/config"
	"github.com/DarwinOsingo/Afrigene/internal/adapters/filestore"
	"github.com/DarwinOsingo/Afrigene/internal/adapters/jwtclaims"
	"github.com/DarwinOsingo/Afrigene/internal/apiclient"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/session"
)

const sessionFileEnv = "AFRIGENE_SESSION_FILE"

type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// globalOptions are accepted by every command.
type globalOptions struct {
	APIBaseURL  string
	SessionFile string
	JSON        bool
	Query       string
	Timeout     time.Duration
	Verbose     bool
}

func (g *globalOptions) defaults(api config.APIConfig) {
	g.APIBaseURL = api.BaseURL
	g.Timeout = api.Timeout
	g.SessionFile = defaultSessionFile()
}

func (g *globalOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&g.APIBaseURL, "api", g.APIBaseURL, "API base URL including the version prefix")
	fs.StringVar(&g.SessionFile, "session-file", g.SessionFile, "where the session tokens are stored")
	fs.BoolVar(&g.JSON, "json", false, "print JSON instead of tables")
	fs.StringVar(&g.Query, "query", "", "JMESPath expression applied to the JSON output (implies --json)")
	fs.DurationVar(&g.Timeout, "timeout", g.Timeout, "per-request timeout")
	fs.BoolVarP(&g.Verbose, "verbose", "v", false, "log debug output to stderr")
}

// defaultSessionFile honours AFRIGENE_SESSION_FILE, then the user config dir.
func defaultSessionFile() string {
	if p := os.Getenv(sessionFileEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "afrigene-session.json")
	}
	return filepath.Join(dir, "afrigene", "session.json")
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	IO     stdio
	Opts   globalOptions
	// Flags holds the command's parsed flag struct, if any.
	Flags any

	readPassword func(w io.Writer) (string, error)
}

// lab bundles the session and a client bound to it.
type lab struct {
	store *session.Store
	api   *apiclient.Client
}

// open rehydrates the session file and binds an API client to it.
func (c *commandContext) open() (*lab, error) {
	base, err := apiclient.New(apiclient.Options{
		BaseURL:   c.Opts.APIBaseURL,
		Timeout:   c.Opts.Timeout,
		UserAgent: "afrigene-lab",
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, err
	}
	store, err := session.Open(c.Ctx, session.Options{
		Storage:  filestore.New(c.Opts.SessionFile),
		Auth:     base,
		Profiles: jwtclaims.NewResolver(),
		Logger:   c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", c.Opts.SessionFile, err)
	}
	return &lab{store: store, api: base.WithTokens(store)}, nil
}

var errNotSignedIn = errors.New("not signed in; run `afrigene-lab login`")

// openSignedIn is open plus a check that tokens are present.
func (c *commandContext) openSignedIn() (*lab, error) {
	l, err := c.open()
	if err != nil {
		return nil, err
	}
	if !l.store.IsAuthenticated() {
		return nil, errNotSignedIn
	}
	return l, nil
}

// readTerminalPassword prompts on stderr with echo disabled.
func readTerminalPassword(w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for the password prompt (use --password-stdin)")
	}
	writef(w, "Password: ")
	b, err := term.ReadPassword(fd)
	writef(w, "\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// readPasswordLine reads one line from r, dropping the trailing newline.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newCommandLogger logs to stderr: text on a terminal, JSON otherwise.
func newCommandLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// describeError turns API failures into one readable line.
func describeError(err error) string {
	switch {
	case apperrors.IsAuthentication(err):
		return err.Error()
	case apperrors.IsUnauthorized(err):
		return "the API rejected the stored session; run `afrigene-lab login`"
	case apperrors.IsAPI(err), apperrors.IsNetwork(err):
		return apperrors.LoadFailure(err)
	default:
		return err.Error()
	}
}
