package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/oisee/zvm/pkg/config"
	"github.com/oisee/zvm/pkg/memory"
	"github.com/oisee/zvm/pkg/report"
	"github.com/oisee/zvm/pkg/scan"
	"github.com/oisee/zvm/pkg/story"
	"github.com/oisee/zvm/pkg/zstring"
)

var log = commonlog.GetLogger("zvm.zdump")

func main() {
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:          "zdump",
		Short:        "Inspect Z-machine story files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(cfg.Log.Verbosity, nil)
			if cfg.Dir != "" {
				log.Debugf("using %s/%s", cfg.Dir, config.FileName)
			}
			_, err := report.ParseFormat(cfg.Output.Format)
			return err
		},
	}
	cfg.BindFlags(rootCmd.PersistentFlags())

	// header command
	headerCmd := &cobra.Command{
		Use:   "header",
		Short: "Print the story header",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			if cfg.Output.Format != string(report.Text) {
				return emit(cfg, &report.Listing{Story: scan.Info(s)})
			}
			h := s.Header()
			fmt.Printf("Version:        %d\n", h.Version)
			fmt.Printf("Release:        %d\n", h.Release)
			fmt.Printf("Serial:         %s\n", h.Serial)
			fmt.Printf("Checksum:       0x%04x\n", h.Checksum)
			fmt.Printf("File length:    %d\n", h.FileLength)
			fmt.Printf("High memory:    %s\n", h.HighMemory)
			fmt.Printf("Initial PC:     %s\n", h.InitialPC)
			fmt.Printf("Dictionary:     %s\n", h.Dictionary)
			fmt.Printf("Object table:   %s\n", h.ObjectTable)
			fmt.Printf("Globals:        %s\n", h.Globals)
			fmt.Printf("Static memory:  %s\n", h.StaticBase)
			fmt.Printf("Abbreviations:  %s\n", h.Abbreviations)
			fmt.Printf("Flags:          0x%02x 0x%04x\n", h.Flags1, h.Flags2)
			return nil
		},
	}

	// table commands
	abbrevCmd := &cobra.Command{
		Use:   "abbreviations",
		Short: "Decode all 96 abbreviations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanAndEmit(cfg, scan.Config{Abbreviations: true})
		},
	}
	dictCmd := &cobra.Command{
		Use:   "dictionary",
		Short: "List dictionary words",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanAndEmit(cfg, scan.Config{Dictionary: true})
		},
	}
	objectsCmd := &cobra.Command{
		Use:   "objects",
		Short: "List objects with their links and attributes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanAndEmit(cfg, scan.Config{Objects: true})
		},
	}

	// tree command
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the object tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			return printTree(s.Objects())
		},
	}

	// string command
	var packed bool

	stringCmd := &cobra.Command{
		Use:   "string [address]",
		Short: "Decode the Z-string at an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			v, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			var at zstring.Address
			if packed {
				at, err = s.UnpackString(story.PackedAddress(v))
			} else {
				var a memory.ByteAddress
				if a, err = memory.NewByteAddress(v); err == nil {
					at, err = zstring.AtByte(a)
				}
			}
			if err != nil {
				return err
			}
			text, err := s.ReadString(at)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %q\n", at, text)
			return nil
		},
	}
	stringCmd.Flags().BoolVarP(&packed, "packed", "p", false, "Address is a packed string address")

	// disasm command
	var count int
	var routine bool

	disasmCmd := &cobra.Command{
		Use:   "disasm [address...]",
		Short: "Disassemble instructions (default: from the initial PC)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			sc := scan.Config{CodeCount: count}
			if len(args) == 0 {
				sc.Code = []memory.ByteAddress{s.Header().InitialPC}
			}
			for _, arg := range args {
				v, err := parseNumber(arg)
				if err != nil {
					return err
				}
				var a memory.ByteAddress
				if routine {
					a, err = routineStart(s, story.PackedAddress(v))
				} else {
					a, err = memory.NewByteAddress(v)
				}
				if err != nil {
					return err
				}
				sc.Code = append(sc.Code, a)
			}
			return runScan(cfg, s, sc)
		},
	}
	disasmCmd.Flags().IntVarP(&count, "count", "n", cfg.Scan.Count, "Instructions to decode from each address")
	disasmCmd.Flags().BoolVarP(&routine, "routine", "r", false, "Addresses are packed routine addresses")

	// export command
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Decode every table and the code at the initial PC",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			sc := scan.All(s)
			sc.CodeCount = cfg.Scan.Count
			return runScan(cfg, s, sc)
		},
	}

	// verify command
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the story against its header checksum",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStory(cfg)
			if err != nil {
				return err
			}
			sum, ok := s.Verify()
			if !ok {
				return fmt.Errorf("checksum 0x%04x does not match header 0x%04x", sum, s.Header().Checksum)
			}
			fmt.Printf("checksum 0x%04x ok\n", sum)
			return nil
		},
	}

	rootCmd.AddCommand(headerCmd, abbrevCmd, dictCmd, objectsCmd, treeCmd, stringCmd, disasmCmd, exportCmd, verifyCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadStory(cfg *config.Config) (*story.Story, error) {
	if cfg.Story == "" {
		return nil, errors.New("no story file: pass --story or set story in " + config.FileName)
	}
	return story.LoadFile(cfg.Story)
}

func scanAndEmit(cfg *config.Config, sc scan.Config) error {
	s, err := loadStory(cfg)
	if err != nil {
		return err
	}
	return runScan(cfg, s, sc)
}

// runScan writes whatever rows decoded before reporting failures.
func runScan(cfg *config.Config, s *story.Story, sc scan.Config) error {
	sc.Workers = cfg.Scan.Workers
	table, scanErr := scan.Run(s, sc)
	if table == nil {
		return scanErr
	}
	if err := emit(cfg, table.Listing()); err != nil {
		return err
	}
	return scanErr
}

func emit(cfg *config.Config, l *report.Listing) error {
	f, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if cfg.Output.Path != "" {
		return report.Export(cfg.Output.Path, f, l)
	}
	if f == report.SQLite {
		return errors.New("sqlite output needs --output")
	}
	return report.Write(os.Stdout, f, l)
}

func printTree(tree story.ObjectTree) error {
	roots, err := tree.Roots()
	if err != nil {
		return err
	}
	var walk func(n story.ObjectNumber, depth int) error
	walk = func(n story.ObjectNumber, depth int) error {
		name, err := tree.Name(n)
		if err != nil {
			return err
		}
		fmt.Printf("%s[%3d] %q\n", strings.Repeat(". ", depth), n, name)
		children, err := tree.Children(n)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := walk(r, 0); err != nil {
			return err
		}
	}
	return nil
}

// routineStart unpacks a routine address and skips its header: a locals
// count byte, followed in V1-4 by one initial value word per local.
func routineStart(s *story.Story, p story.PackedAddress) (memory.ByteAddress, error) {
	a, err := s.Unpack(p, story.PackedRoutine)
	if err != nil {
		return 0, err
	}
	locals, err := s.Read(a)
	if err != nil {
		return 0, fmt.Errorf("routine at %s: %w", a, err)
	}
	if locals > 15 {
		return 0, fmt.Errorf("routine at %s declares %d locals", a, locals)
	}
	skip := 1
	if s.Version().IsV4OrLower() {
		skip += 2 * int(locals)
	}
	return a.Add(skip)
}

// parseNumber reads decimal, 0x-prefixed, $-prefixed or h-suffixed hex.
func parseNumber(s string) (int, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	digits, base := lower, 10
	switch {
	case strings.HasPrefix(lower, "0x"):
		digits, base = lower[2:], 16
	case strings.HasPrefix(lower, "$"):
		digits, base = lower[1:], 16
	case strings.HasSuffix(lower, "h"):
		digits, base = lower[:len(lower)-1], 16
	}
	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return int(v), nil
}
