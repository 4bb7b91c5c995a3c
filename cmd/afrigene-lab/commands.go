package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
	"github.com/DarwinOsingo/Afrigene/internal/http/validation"
)

type loginOptions struct {
	Email         string
	MFACode       string
	PasswordStdin bool
}

func loginFlags(fs *pflag.FlagSet) any {
	opts := &loginOptions{}
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.StringVar(&opts.MFACode, "mfa-code", "", "6-digit MFA code, if enabled for the account")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from stdin")
	return opts
}

type pageOptions struct {
	Status   string
	SampleID string
	Limit    int
	Offset   int
}

func pageFlags(samples bool) func(fs *pflag.FlagSet) any {
	return func(fs *pflag.FlagSet) any {
		opts := &pageOptions{}
		if samples {
			fs.StringVar(&opts.Status, "status", "", "filter by status (received, processing, results-available, archived)")
		} else {
			fs.StringVar(&opts.SampleID, "sample", "", "only entries for this sample id")
		}
		fs.IntVar(&opts.Limit, "limit", model.DefaultPageLimit, "page size")
		fs.IntVar(&opts.Offset, "offset", 0, "number of entries to skip")
		return opts
	}
}

func runLogin(cmdCtx *commandContext, _ []string) error {
	opts, _ := cmdCtx.Flags.(*loginOptions)
	if opts == nil || strings.TrimSpace(opts.Email) == "" {
		return fmt.Errorf("%w: --email is required", errUsage)
	}
	if err := validation.New().
		Validate("email", opts.Email, validation.Email("Email")).
		Validate("mfa-code", opts.MFACode, validation.Pattern("MFA code", validation.MFACode)).
		Err(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var (
		password string
		err      error
	)
	if opts.PasswordStdin {
		password, err = readPasswordLine(cmdCtx.IO.in)
	} else {
		password, err = cmdCtx.readPassword(cmdCtx.IO.err)
	}
	if err != nil {
		return err
	}

	l, err := cmdCtx.open()
	if err != nil {
		return err
	}
	user, err := l.store.Login(cmdCtx.Ctx, domainauth.Credentials{
		Email:    opts.Email,
		Password: password,
		MFACode:  opts.MFACode,
	})
	if err != nil {
		return err
	}
	return emit(cmdCtx, user, func(w *tabwriter.Writer) {
		writef(w, "Signed in as %s (%s)\n", user.Email, user.Role)
	})
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	l, err := cmdCtx.open()
	if err != nil {
		return err
	}
	if !l.store.IsAuthenticated() {
		writef(cmdCtx.IO.out, "Not signed in.\n")
		return nil
	}
	// The API call is best-effort; local tokens are cleared regardless.
	if err := l.api.Logout(cmdCtx.Ctx); err != nil {
		cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "api logout failed", "error", err)
	}
	if err := l.store.Logout(cmdCtx.Ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	writef(cmdCtx.IO.out, "Signed out.\n")
	return nil
}

type statusReport struct {
	Authenticated bool             `json:"authenticated"`
	User          *domainauth.User `json:"user,omitempty"`
	API           string           `json:"api"`
	APIStatus     string           `json:"api_status,omitempty"`
	APIVersion    string           `json:"api_version,omitempty"`
	SessionFile   string           `json:"session_file"`
}

func runStatus(cmdCtx *commandContext, _ []string) error {
	l, err := cmdCtx.open()
	if err != nil {
		return err
	}
	if l.store.IsAuthenticated() && l.store.User() == nil {
		l.store.RecoverProfile(cmdCtx.Ctx)
	}
	snap := l.store.Snapshot()
	report := statusReport{
		Authenticated: snap.Authenticated,
		User:          snap.User,
		API:           "unreachable",
		SessionFile:   cmdCtx.Opts.SessionFile,
	}
	if health, herr := l.api.Health(cmdCtx.Ctx); herr == nil {
		report.API = "reachable"
		if !health.OK() {
			report.API = "degraded"
		}
		report.APIStatus = health.Status
		report.APIVersion = health.Version
	} else {
		cmdCtx.Logger.DebugContext(cmdCtx.Ctx, "health check failed", "error", herr)
	}

	return emit(cmdCtx, report, func(w *tabwriter.Writer) {
		switch {
		case !report.Authenticated:
			writef(w, "Session:\tnot signed in\n")
		case report.User != nil:
			writef(w, "Session:\tsigned in as %s (%s)\n", report.User.Email, report.User.Role)
		default:
			writef(w, "Session:\tsigned in (profile unavailable)\n")
		}
		writef(w, "API:\t%s %s\n", cmdCtx.Opts.APIBaseURL, report.API)
		writef(w, "Session file:\t%s\n", report.SessionFile)
	})
}

func runSamples(cmdCtx *commandContext, _ []string) error {
	opts, _ := cmdCtx.Flags.(*pageOptions)
	if opts == nil {
		opts = &pageOptions{}
	}
	filter := model.SampleFilter{Limit: opts.Limit, Offset: opts.Offset}
	if opts.Status != "" {
		status, ok := model.ParseSampleStatus(opts.Status)
		if !ok {
			return fmt.Errorf("%w: unknown status %q", errUsage, opts.Status)
		}
		filter.Status = status
	}

	l, err := cmdCtx.openSignedIn()
	if err != nil {
		return err
	}
	list, err := l.api.ListSamples(cmdCtx.Ctx, filter)
	if err != nil {
		return err
	}
	return emit(cmdCtx, list, func(w *tabwriter.Writer) {
		if len(list.Samples) == 0 {
			writef(w, "No samples found.\n")
			return
		}
		writef(w, "SAMPLE ID\tPARTICIPANT\tSTATUS\tUPLOADED\n")
		for _, s := range list.Samples {
			writef(w, "%s\t%s\t%s\t%s\n", s.SampleID, s.ParticipantID, s.Status, formatTime(s.UploadedAt))
		}
		writePageFooter(w, list.Offset, len(list.Samples), list.Total)
	})
}

func runResults(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: exactly one sample id is required", errUsage)
	}
	l, err := cmdCtx.openSignedIn()
	if err != nil {
		return err
	}
	res, err := l.api.GetSampleResults(cmdCtx.Ctx, args[0])
	if err != nil {
		return err
	}
	return emit(cmdCtx, res, func(w *tabwriter.Writer) { writeResults(w, res) })
}

func runAudit(cmdCtx *commandContext, _ []string) error {
	opts, _ := cmdCtx.Flags.(*pageOptions)
	if opts == nil {
		opts = &pageOptions{}
	}
	l, err := cmdCtx.openSignedIn()
	if err != nil {
		return err
	}
	logs, err := l.api.ListAuditLogs(cmdCtx.Ctx, model.AuditFilter{
		SampleID: opts.SampleID,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
	if err != nil {
		return err
	}
	return emit(cmdCtx, logs, func(w *tabwriter.Writer) {
		if len(logs.Logs) == 0 {
			writef(w, "No audit entries.\n")
			return
		}
		writef(w, "TIMESTAMP\tUSER\tACTION\tRESOURCE\tIP ADDRESS\n")
		for _, e := range logs.Logs {
			writef(w, "%s\t%s\t%s\t%s\t%s\n",
				formatTime(e.Timestamp), dash(e.UserEmail), e.Action, dash(e.ResourceAccessed), dash(e.IPAddress))
		}
		writePageFooter(w, logs.Offset, len(logs.Logs), logs.Total)
	})
}

func runInstitutions(cmdCtx *commandContext, _ []string) error {
	l, err := cmdCtx.open()
	if err != nil {
		return err
	}
	list, err := l.api.ListInstitutions(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return emit(cmdCtx, list, func(w *tabwriter.Writer) {
		if len(list) == 0 {
			writef(w, "No partner institutions listed.\n")
			return
		}
		writef(w, "NAME\tCOUNTRY\tIRB APPROVAL\tRETENTION\n")
		for _, inst := range list {
			retention := "-"
			if inst.DataRetentionMonths > 0 {
				retention = fmt.Sprintf("%d months", inst.DataRetentionMonths)
			}
			writef(w, "%s\t%s\t%s\t%s\n", inst.Name, dash(inst.Country), dash(inst.IRBApprovalNumber), retention)
		}
	})
}

