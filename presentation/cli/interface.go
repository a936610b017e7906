package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"scrapeflow/application/interpreter"
	"scrapeflow/config"
	"scrapeflow/domain/interfaces"
	"scrapeflow/infrastructure/browserdriver"
	"scrapeflow/infrastructure/logging"
)

// CLIInterface is the terminal entrypoint: it repeatedly prompts for a
// workflow file (and an optional params file), runs it to completion
// against a fresh page, and reports the result. It plays the role the
// teacher's terminal.TerminalInterface played for the agent loop.
type CLIInterface struct {
	logger   *logrus.Logger
	launcher *browserdriver.Launcher
	reader   *bufio.Reader
	outDir   string
}

// NewCLIInterface loads configuration, starts logging, and launches the
// browser.
func NewCLIInterface() (*CLIInterface, error) {
	logger := logging.New(false)
	cfg := config.Load(logger)
	logger.SetLevel(levelFor(cfg.Debug))

	launcher, err := browserdriver.Launch(browserdriver.LaunchOptions{
		Headless:          cfg.Headless,
		NavigationTimeout: cfg.NavigationTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("cli: failed to launch browser: %w", err)
	}

	outDir := "./scrapeflow_output"
	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Warnf("could not create output directory %s: %v", outDir, err)
	}

	return &CLIInterface{
		logger:   logger,
		launcher: launcher,
		reader:   bufio.NewReader(os.Stdin),
		outDir:   outDir,
	}, nil
}

// Run loops: read a workflow path, run it, report, repeat until "quit".
func (c *CLIInterface) Run() error {
	fmt.Println("scrapeflow")
	fmt.Println("==========")
	fmt.Println("Enter a path to a workflow JSON file, or 'quit' to exit.")
	fmt.Println()

	for {
		fmt.Print("workflow> ")
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "q" {
			fmt.Println("bye")
			return nil
		}

		if err := c.runOne(line); err != nil {
			fmt.Printf("run failed: %v\n\n", err)
			continue
		}
		fmt.Println("run complete")
		fmt.Println()
	}
}

func (c *CLIInterface) runOne(workflowPath string) error {
	data, err := os.ReadFile(workflowPath)
	if err != nil {
		return fmt.Errorf("reading workflow: %w", err)
	}
	wf, err := interpreter.ParseWorkflow(data)
	if err != nil {
		return fmt.Errorf("parsing workflow: %w", err)
	}

	params, err := c.readParams(workflowPath)
	if err != nil {
		return err
	}

	driver, err := c.launcher.NewDriver(context.Background())
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}

	interp := interpreter.New(interpreter.Options{
		Logger: c.logger,
		Host:   newReportingHost(c.logger, c.outDir),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return interp.Run(ctx, driver, wf, params)
}

// readParams looks for a sibling "<workflow>.params.json" file; absent is
// not an error, params are simply empty.
func (c *CLIInterface) readParams(workflowPath string) (map[string]any, error) {
	paramsPath := strings.TrimSuffix(workflowPath, filepath.Ext(workflowPath)) + ".params.json"
	data, err := os.ReadFile(paramsPath)
	if err != nil {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parsing params: %w", err)
	}
	return params, nil
}

// Close saves browser state and shuts the browser down.
func (c *CLIInterface) Close() error {
	return c.launcher.Close()
}

func levelFor(debug bool) logrus.Level {
	if debug {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// reportingHost implements interfaces.Host for the CLI: debug/active-id
// events go to the logger, scraped records are printed as JSON, binary
// artifacts (screenshots) are written to outDir, and flag breakpoints wait
// for an Enter keypress before resuming.
type reportingHost struct {
	logger *logrus.Logger
	outDir string
	reader *bufio.Reader
}

func newReportingHost(logger *logrus.Logger, outDir string) interfaces.Host {
	return &reportingHost{logger: logger, outDir: outDir, reader: bufio.NewReader(os.Stdin)}
}

func (h *reportingHost) Flag(page interfaces.Driver, resume func()) {
	fmt.Printf("\n[flag] paused at %s — press Enter to resume\n", page.URL())
	h.reader.ReadString('\n')
	resume()
}

func (h *reportingHost) ActiveID(id string) {
	if id != "" {
		h.logger.Debugf("firing %s", id)
	}
}

func (h *reportingHost) DebugMessage(text string) {
	h.logger.Debug(text)
}

func (h *reportingHost) Serializable(data any) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		h.logger.Warnf("could not encode scraped data: %v", err)
		return
	}
	fmt.Println(string(b))
}

func (h *reportingHost) Binary(data []byte, mimeType string) {
	ext := "bin"
	switch mimeType {
	case "image/png":
		ext = "png"
	case "image/jpeg":
		ext = "jpg"
	}
	name := filepath.Join(h.outDir, fmt.Sprintf("artifact-%d.%s", time.Now().UnixNano(), ext))
	if err := os.WriteFile(name, data, 0644); err != nil {
		h.logger.Warnf("could not write artifact %s: %v", name, err)
		return
	}
	h.logger.Infof("wrote artifact %s", name)
}
