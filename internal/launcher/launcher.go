// internal/launcher/launcher.go
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/browserctl/internal/browser"
	"github.com/xkilldash9x/browserctl/internal/config"
)

// Mode is the kind of user data directory Chrome runs with.
type Mode string

const (
	// ModeClean starts from an empty profile that is wiped on every launch.
	ModeClean Mode = "clean"
	// ModeProfile runs on a synced copy of one of the user's Chrome profiles.
	ModeProfile Mode = "profile"
)

const (
	modeFile    = ".mode"
	cleanDir    = "clean"
	profileDir  = "profile"
	firstRun    = "First Run"
	localState  = "Local State"
	killSettle  = time.Second
	defaultName = "Default"
)

// Function variables for swapping process and browser interaction in tests.
var (
	goos               = runtime.GOOS
	execCommandContext = exec.CommandContext
	execLookPath       = exec.LookPath
	homeDir            = homedir.Dir
	sleep              = sleepContext
	startProcess       = startDetached
	probeBrowser       = connectOnce
)

// Options selects the launch mode.
type Options struct {
	// Profile requests profile mode. ProfileName picks the source profile;
	// empty auto-detects one.
	Profile     bool
	ProfileName string
	// Force restarts the skill's Chrome even when a matching one is running.
	Force bool
}

// Mode returns the mode the options ask for.
func (o Options) Mode() Mode {
	if o.Profile {
		return ModeProfile
	}
	return ModeClean
}

// Outcome describes what Launch did.
type Outcome struct {
	Mode   Mode
	Dir    string
	Port   int
	Reused bool
}

// String is the line printed by the start subcommand.
func (o Outcome) String() string {
	switch {
	case o.Reused:
		return fmt.Sprintf("Chrome already running on :%d (reusing %s, %s)", o.Port, o.Mode, o.Dir)
	case o.Mode == ModeProfile:
		return fmt.Sprintf("Chrome started on :%d with profile (%s)", o.Port, o.Dir)
	default:
		return fmt.Sprintf("Chrome started on :%d clean (%s)", o.Port, o.Dir)
	}
}

// Launcher starts, reuses and restarts the Chrome instance the other
// subcommands connect to. It only ever kills processes that use its own base
// directory, never the user's everyday browser.
type Launcher struct {
	cfg            config.LauncherConfig
	browserURL     string
	connectTimeout time.Duration
	logger         *zap.Logger
}

// New returns a Launcher for cfg.
func New(cfg *config.Config, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		cfg:            cfg.Launcher,
		browserURL:     cfg.Browser.URL,
		connectTimeout: cfg.Browser.ConnectTimeout,
		logger:         logger.Named("launcher"),
	}
}

func (l *Launcher) dir(m Mode) string {
	if m == ModeProfile {
		return filepath.Join(l.cfg.BaseDir, profileDir)
	}
	return filepath.Join(l.cfg.BaseDir, cleanDir)
}

// Launch makes sure a Chrome with remote debugging is running in the
// requested mode.
func (l *Launcher) Launch(ctx context.Context, opts Options) (Outcome, error) {
	chromePath, err := l.chromePath()
	if err != nil {
		return Outcome{}, err
	}

	want := opts.Mode()
	out := Outcome{Mode: want, Dir: l.dir(want), Port: l.cfg.Port}

	if opts.Force {
		l.logger.Info("Force restart requested.")
		if err := l.killSkillChrome(ctx); err != nil {
			return Outcome{}, err
		}
	} else if probeBrowser(ctx, l.browserURL, l.connectTimeout, l.logger) {
		current := l.currentMode()
		if current == want {
			out.Reused = true
			return out, nil
		}
		l.logger.Info("Running Chrome uses another mode, restarting.",
			zap.String("running", string(current)), zap.String("requested", string(want)))
		if err := l.killSkillChrome(ctx); err != nil {
			return Outcome{}, err
		}
	}

	if err := os.MkdirAll(l.cfg.BaseDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("creating %s: %w", l.cfg.BaseDir, err)
	}

	if want == ModeProfile {
		if err := l.syncProfile(ctx, opts.ProfileName); err != nil {
			return Outcome{}, err
		}
	} else if err := l.resetClean(); err != nil {
		return Outcome{}, err
	}

	flags := chromeFlags(l.cfg.Port, out.Dir)
	l.logger.Info("Starting Chrome.", zap.String("path", chromePath), zap.Strings("flags", flags))
	if err := startProcess(chromePath, flags); err != nil {
		return Outcome{}, fmt.Errorf("Failed to start Chrome: %s", err.Error())
	}

	if err := l.waitReady(ctx); err != nil {
		return Outcome{}, err
	}

	if err := os.WriteFile(filepath.Join(l.cfg.BaseDir, modeFile), []byte(want), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("recording mode: %w", err)
	}
	return out, nil
}

// chromePath returns the configured binary, or the first standard location
// that exists for this platform.
func (l *Launcher) chromePath() (string, error) {
	candidates := chromeCandidates(goos)
	if l.cfg.ChromePath != "" {
		candidates = []string{l.cfg.ChromePath}
	}
	for _, p := range candidates {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", errors.New("Chrome not found. Install Google Chrome.")
}

func chromeCandidates(platform string) []string {
	switch platform {
	case "darwin":
		return []string{"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"}
	case "windows":
		return []string{`C:\Program Files\Google\Chrome\Application\chrome.exe`}
	default:
		return []string{"/usr/bin/google-chrome", "/usr/bin/chromium", "/usr/bin/chromium-browser"}
	}
}

// chromeDataDir is where Chrome keeps the user's profiles.
func chromeDataDir(platform, home string) string {
	switch platform {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
	default:
		return filepath.Join(home, ".config", "google-chrome")
	}
}

// chromeFlags enables remote debugging on port and suppresses first-run UI
// and session restore.
func chromeFlags(port int, dataDir string) []string {
	return []string{
		"--remote-debugging-port=" + strconv.Itoa(port),
		"--user-data-dir=" + dataDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-session-crashed-bubble",
		"--disable-features=MediaRouter,Translate,OptimizationHints,SessionRestore",
		"about:blank",
	}
}

// currentMode reads the recorded mode of the running instance. A missing
// record means clean.
func (l *Launcher) currentMode() Mode {
	b, err := os.ReadFile(filepath.Join(l.cfg.BaseDir, modeFile))
	if err != nil {
		return ModeClean
	}
	if Mode(strings.TrimSpace(string(b))) == ModeProfile {
		return ModeProfile
	}
	return ModeClean
}

// killSkillChrome terminates Chrome processes started with a user data
// directory under the base directory. Finding none is not an error.
func (l *Launcher) killSkillChrome(ctx context.Context) error {
	marker := "user-data-dir=" + l.cfg.BaseDir
	var cmd *exec.Cmd
	if goos == "windows" {
		cmd = execCommandContext(ctx, "taskkill", "/F", "/FI", "COMMANDLINE eq *"+marker+"*")
	} else {
		cmd = execCommandContext(ctx, "pkill", "-f", marker)
	}
	if err := cmd.Run(); err != nil {
		l.logger.Debug("No skill Chrome process killed.", zap.Error(err))
	}
	return sleep(ctx, killSettle)
}

// resetClean wipes the clean directory and seeds the first-run marker.
func (l *Launcher) resetClean() error {
	dir := l.dir(ModeClean)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, firstRun), nil, 0o644); err != nil {
		return fmt.Errorf("seeding %s: %w", firstRun, err)
	}
	return nil
}

// syncProfile mirrors the named (or detected) Chrome profile into the
// profile directory, leaving out caches, and copies Local State beside it
// so Chrome recognizes the profile.
func (l *Launcher) syncProfile(ctx context.Context, name string) error {
	if _, err := execLookPath("rsync"); err != nil {
		return errors.New("rsync not found. Required for --profile option.")
	}

	home, err := homeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	dataDir := chromeDataDir(goos, home)

	if name == "" {
		if name = findDefaultProfile(dataDir); name == "" {
			return fmt.Errorf("No Chrome profiles found in: %s", dataDir)
		}
	}
	source := filepath.Join(dataDir, name)
	if !fileExists(source) {
		return fmt.Errorf("Chrome profile %q not found at: %s", name, source)
	}

	target := filepath.Join(l.dir(ModeProfile), name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmd := execCommandContext(gctx, "rsync", rsyncArgs(source, target, l.cfg.RsyncExcludes)...)
		if out, err := cmd.CombinedOutput(); err != nil {
			l.logger.Error("rsync failed.", zap.Error(err), zap.ByteString("output", out))
			return err
		}
		return nil
	})
	g.Go(func() error {
		src := filepath.Join(dataDir, localState)
		if !fileExists(src) {
			return nil
		}
		return copyFile(src, filepath.Join(l.dir(ModeProfile), localState))
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("Failed to sync Chrome profile %q", name)
	}
	l.logger.Info("Profile synced.", zap.String("profile", name), zap.String("target", target))
	return nil
}

// findDefaultProfile returns "Default" when present, otherwise the first
// "Profile N" directory in sorted order, or "" when there is none.
func findDefaultProfile(dataDir string) string {
	if fileExists(filepath.Join(dataDir, defaultName)) {
		return defaultName
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return ""
	}
	var profiles []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "Profile ") {
			profiles = append(profiles, e.Name())
		}
	}
	if len(profiles) == 0 {
		return ""
	}
	sort.Strings(profiles)
	return profiles[0]
}

func rsyncArgs(source, target string, excludes []string) []string {
	args := []string{"-a", "--delete"}
	for _, ex := range excludes {
		args = append(args, "--exclude="+ex)
	}
	return append(args, source+string(filepath.Separator), target+string(filepath.Separator))
}

// waitReady polls the debugging endpoint until it answers.
func (l *Launcher) waitReady(ctx context.Context) error {
	for i := 0; i < l.cfg.ReadyAttempts; i++ {
		if probeBrowser(ctx, l.browserURL, l.connectTimeout, l.logger) {
			l.logger.Info("Chrome is ready.", zap.Int("attempts", i+1))
			return nil
		}
		if err := sleep(ctx, l.cfg.ReadyInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("Chrome started but failed to connect on :%d", l.cfg.Port)
}

// connectOnce reports whether a browser answers at url.
func connectOnce(ctx context.Context, url string, timeout time.Duration, logger *zap.Logger) bool {
	client, err := browser.Connect(ctx, url, timeout, logger)
	if err != nil {
		return false
	}
	client.Disconnect()
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
