package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/edpgen/config"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
	"github.com/santiagomed/edpgen/server"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "edpgen",
	Short: "edpgen turns specification documents into generated source files",
	Long: `edpgen is a CLI tool that summarizes a specification document, builds a prompt for a
chosen code target and component type, and generates source files through remote agent endpoints.`,
}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate source files from a specification",
	Run: func(cmd *cobra.Command, args []string) {
		flags, err := parseGenFlags(cmd)
		if err != nil {
			exitf("Error parsing flags: %v\n", err)
		}

		a, err := newApp(flags.config)
		if err != nil {
			exitf("Error initializing: %v\n", err)
		}
		defer a.Shutdown()

		model, err := newGenerateModel(a, flags)
		if err != nil {
			exitf("Error initializing model: %v\n", err)
		}
		runProgram(model)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a use case document with a code file",
	Run: func(cmd *cobra.Command, args []string) {
		flags, err := parseCompareFlags(cmd)
		if err != nil {
			exitf("Error parsing flags: %v\n", err)
		}

		a, err := newApp(flags.config)
		if err != nil {
			exitf("Error initializing: %v\n", err)
		}
		defer a.Shutdown()

		model, err := newCompareModel(a, flags)
		if err != nil {
			exitf("Error initializing model: %v\n", err)
		}
		runProgram(model)
	},
}

var usecaseCmd = &cobra.Command{
	Use:   "usecase [files...]",
	Short: "Generate use case documentation from legacy source files",
	Run: func(cmd *cobra.Command, args []string) {
		flags, err := parseUsecaseFlags(cmd, args)
		if err != nil {
			exitf("Error parsing flags: %v\n", err)
		}

		a, err := newApp(flags.config)
		if err != nil {
			exitf("Error initializing: %v\n", err)
		}
		defer a.Shutdown()

		model, err := newUsecaseModel(a, flags)
		if err != nil {
			exitf("Error initializing model: %v\n", err)
		}
		runProgram(model)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation wizard as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		addr, _ := cmd.Flags().GetString("addr")
		trace, _ := cmd.Flags().GetBool("trace")

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Server.Addr = addr
		}

		logger.InitConsoleLogger(cfg.LogLevel)
		l := logger.GetLogger()

		if trace {
			shutdown, err := server.InitTracer(os.Stdout)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}

		clients, err := llm.NewClients(cfg, l)
		if err != nil {
			return err
		}
		srv, err := server.New(cfg, clients, l)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Download the generated files of a server session",
	Run: func(cmd *cobra.Command, args []string) {
		flags, err := parseGetFlags(cmd)
		if err != nil {
			exitf("Error parsing flags: %v\n", err)
		}

		client := &http.Client{Timeout: 5 * time.Minute}
		resp, err := downloadFile(client, archiveURL(flags.server, flags.session), flags.token)
		if err != nil {
			exitf("Error downloading file: %v\n", errorStyle.Render(err.Error()))
		}
		defer resp.Body.Close()

		if resp.ContentLength <= 0 {
			exitf("can't parse content length, aborting download\n")
		}

		var p *tea.Program
		pw := &progressWriter{
			total:  int(resp.ContentLength),
			reader: resp.Body,
			onProgress: func(ratio float64) {
				p.Send(progressMsg(ratio))
			},
		}

		m := newGetCmdModel(pw, fs.NewOsFileSystem(), filepath.Join(".", flags.session))
		p = tea.NewProgram(m)

		go pw.Start(p)

		if _, err := p.Run(); err != nil {
			exitf("error running program: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(usecaseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(getCmd)

	genCmd.Flags().StringP("file", "f", "", "Specification document to upload (.txt, .md, .doc, .docx, .odt)")
	genCmd.Flags().String("text", "", "Specification text for the reference input")
	genCmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	genCmd.Flags().StringP("target", "t", "", "Code target (frontend or backend); with --component runs without prompts")
	genCmd.Flags().String("component", "", "Component type for the target")
	genCmd.Flags().StringP("out", "o", "", "Directory generated files are saved to")
	genCmd.Flags().Bool("zip", false, "Save generated files as one zip archive")
	genCmd.MarkFlagsMutuallyExclusive("file", "text")

	compareCmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	compareCmd.Flags().String("left", "", "File for the left slot")
	compareCmd.Flags().String("right", "", "File for the right slot")
	compareCmd.Flags().String("left-kind", "", "Kind of the left slot (usecase or code)")
	compareCmd.Flags().String("right-kind", "", "Kind of the right slot (usecase or code)")

	usecaseCmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	usecaseCmd.Flags().StringP("out", "o", "", "Directory the documentation is saved to")

	serveCmd.Flags().StringP("config", "c", "", "Path to custom configuration file")
	serveCmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	serveCmd.Flags().Bool("trace", false, "Print OpenTelemetry spans to stdout")

	getCmd.Flags().String("server", "http://localhost:8080", "edpgen server URL")
	getCmd.Flags().StringP("session", "s", "", "Session id")
	getCmd.Flags().StringP("token", "t", "", "edpgen server token")
	getCmd.MarkFlagRequired("session")
}

func parseGetFlags(cmd *cobra.Command) (getFlags, error) {
	serverURL, err := cmd.Flags().GetString("server")
	if err != nil {
		return getFlags{}, err
	}
	session, err := cmd.Flags().GetString("session")
	if err != nil {
		return getFlags{}, err
	}
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return getFlags{}, err
	}
	return getFlags{server: serverURL, session: session, token: token}, nil
}

func parseGenFlags(cmd *cobra.Command) (genFlags, error) {
	var f genFlags
	fields := map[string]*string{
		"file":      &f.file,
		"text":      &f.text,
		"config":    &f.config,
		"target":    &f.target,
		"component": &f.component,
		"out":       &f.out,
	}
	for name, dst := range fields {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return genFlags{}, err
		}
		*dst = v
	}
	zip, err := cmd.Flags().GetBool("zip")
	if err != nil {
		return genFlags{}, err
	}
	f.zip = zip
	if (f.target == "") != (f.component == "") {
		return genFlags{}, fmt.Errorf("--target and --component must be given together")
	}
	return f, nil
}

func parseCompareFlags(cmd *cobra.Command) (compareFlags, error) {
	var f compareFlags
	fields := map[string]*string{
		"config":     &f.config,
		"left":       &f.left,
		"right":      &f.right,
		"left-kind":  &f.leftKind,
		"right-kind": &f.rightKind,
	}
	for name, dst := range fields {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return compareFlags{}, err
		}
		*dst = v
	}
	return f, nil
}

func parseUsecaseFlags(cmd *cobra.Command, args []string) (usecaseFlags, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return usecaseFlags{}, err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return usecaseFlags{}, err
	}
	return usecaseFlags{config: configPath, out: out, files: args}, nil
}

func runProgram(model tea.Model) {
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		exitf("Error running program: %v\n", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Printf(format, args...)
	os.Exit(1)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
