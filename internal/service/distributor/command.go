package distributor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/oshokin/love-distributor/internal/config"
	"github.com/oshokin/love-distributor/internal/domain/distribution"
	"github.com/oshokin/love-distributor/internal/logger"
	"github.com/oshokin/love-distributor/internal/service/assembler"
	"github.com/oshokin/love-distributor/internal/service/fetcher"
	"github.com/oshokin/love-distributor/internal/service/publisher"
	"github.com/oshokin/love-distributor/internal/tool"
	"github.com/oshokin/love-distributor/internal/workspace"
)

// workspacePrefix names the scratch directory of a run.
const workspacePrefix = "love-distributor-"

// Options contains inputs for the distributor entry point.
type Options struct {
	// ConfigPath is an optional settings file (defaults to love-distributor.yaml).
	ConfigPath string
	// LogLevel overrides the level from the settings file when set.
	LogLevel string
	// LenientMetadata skips missing Info.plist keys with a warning.
	LenientMetadata bool
	// Input is the raw request as given on the command line.
	Input distribution.Input
	// HTTPClient replaces the download client. Nil means the hardened default.
	HTTPClient *http.Client
	// Runner replaces the external tool runner. Nil means os/exec.
	Runner tool.Runner
	// ProgressOut receives download progress when it is a terminal.
	ProgressOut *os.File
}

// distributor runs one request through fetch, assembly and publication.
type distributor struct {
	// req is the validated request.
	req *distribution.Request
	// ws is the private scratch directory.
	ws *workspace.Workspace
	// fetcher downloads the runtime and helper.
	fetcher *fetcher.Fetcher
	// assembler builds the platform artifact.
	assembler *assembler.Assembler
}

var (
	errUnknownLogLevel = errors.New("unknown log level")
	errNotPublished    = errors.New("requested artifact was not published")
)

// Run executes the distribution workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "love-distributor")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return err
	}

	// Inputs are validated before anything touches the disk or network.
	req, err := distribution.NewRequest(opts.Input)
	if err != nil {
		return fmt.Errorf("validate request: %w", err)
	}

	ws, err := workspace.New(workspacePrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", distribution.ErrIO, err)
	}

	defer func() {
		_ = ws.Close(context.WithoutCancel(ctx))
	}()

	d := newDistributor(cfg, opts, req, ws)

	if err = d.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Distribution failed", "error", err)

		return err
	}

	logger.InfoKV(ctx, "Distribution completed successfully",
		"artifact", filepath.Join(req.OutputDir, req.ArtifactName()))

	return nil
}

func newDistributor(
	cfg *config.Config,
	opts *Options,
	req *distribution.Request,
	ws *workspace.Workspace,
) *distributor {
	var fetchOpts []fetcher.Option

	if opts.HTTPClient != nil {
		fetchOpts = append(fetchOpts, fetcher.WithHTTPClient(opts.HTTPClient))
	}

	if opts.ProgressOut != nil {
		fetchOpts = append(fetchOpts, fetcher.WithProgress(opts.ProgressOut))
	}

	runner := opts.Runner
	if runner == nil {
		runner = tool.NewExecRunner(cfg.ToolTimeout)
	}

	return &distributor{
		req:     req,
		ws:      ws,
		fetcher: fetcher.New(cfg, fetchOpts...),
		assembler: assembler.New(runner,
			assembler.WithLenientMetadata(opts.LenientMetadata || cfg.AllowMissingMetadataKeys)),
	}
}

// Run fetches, assembles and publishes, naming the failed stage on error.
func (d *distributor) Run(ctx context.Context) error {
	ctx = logger.WithKV(ctx,
		"name", d.req.Identity.Name,
		"platform", d.req.Platform,
		"runtime_version", d.req.RuntimeVersion)

	logger.DebugKV(ctx, "Workspace created", "path", d.ws.Dir())

	payload, err := d.fetcher.Fetch(ctx, d.ws.Dir(), d.req.Platform, d.req.Arch, d.req.RuntimeVersion)
	if err != nil {
		return fmt.Errorf("fetch runtime: %w", err)
	}

	_, err = d.assembler.Assemble(ctx, &assembler.Input{
		Request:     d.req,
		RuntimePath: payload.Runtime,
		HelperPath:  payload.Helper,
		WorkDir:     d.ws.Dir(),
	})
	if err != nil {
		return fmt.Errorf("assemble %s bundle: %w", d.req.Platform, err)
	}

	published, err := publisher.Publish(ctx, d.ws.Dir(), d.req.OutputDir, d.req.Identity.Name)
	if err != nil {
		return fmt.Errorf("publish artifacts: %w", err)
	}

	expected := filepath.Join(d.req.OutputDir, d.req.ArtifactName())
	if !slices.Contains(published, expected) {
		return fmt.Errorf("publish artifacts: %w: %s: %w", distribution.ErrAssembly, d.req.ArtifactName(), errNotPublished)
	}

	return nil
}

// applyLogLevel sets the global level; the flag wins over the settings file.
func applyLogLevel(flagLevel, cfgLevel string) error {
	level := flagLevel
	if level == "" {
		level = cfgLevel
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q: %w", distribution.ErrValidation, level, errUnknownLogLevel)
	}

	logger.SetLevel(parsed)

	if flagLevel != "" && cfgLevel != "" && flagLevel != cfgLevel {
		logger.Logger().Debugw("Log level from flag overrides settings file", "level", logger.Level(), "settings", cfgLevel)
	}

	return nil
}
