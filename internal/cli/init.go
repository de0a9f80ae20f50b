package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hookwatch/internal/cli/defaults"
	"hookwatch/internal/config"
)

// InitOptions init 命令选项
type InitOptions struct {
	Force   bool
	Example bool
	Token   string
	Webhook string
	Channel string
}

// NewInitCmd 创建 init 命令
func NewInitCmd() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a hookwatch configuration file",
		Long: `Create a hookwatch configuration file.

Values not given as flags are asked for interactively. With --example the
commented template is written unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			return RunInit(cmd, path, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing configuration")
	cmd.Flags().BoolVar(&opts.Example, "example", false, "write the commented template without prompting")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Discord token")
	cmd.Flags().StringVar(&opts.Webhook, "webhook", "", "default webhook URL")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "first channel id to watch")

	return cmd
}

// RunInit 执行初始化
func RunInit(cmd *cobra.Command, path string, opts *InitOptions) error {
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
	}

	out := cmd.OutOrStdout()

	if opts.Example {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
		if err := os.WriteFile(path, defaults.ExampleYAML(), 0600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(out, "Wrote configuration template to %s\n", path)
		return nil
	}

	cfg, err := defaults.ExampleConfig()
	if err != nil {
		return err
	}

	p := newPrompter(cmd.InOrStdin(), out)
	if opts.Token == "" {
		if opts.Token, err = p.secret("Discord token: "); err != nil {
			return err
		}
	}
	if opts.Webhook == "" {
		if opts.Webhook, err = p.line("Default webhook URL: "); err != nil {
			return err
		}
	}
	if opts.Channel == "" {
		if opts.Channel, err = p.line("Channel id to watch: "); err != nil {
			return err
		}
	}

	cfg.Discord.UserToken = opts.Token
	cfg.DefaultWebhook = opts.Webhook
	if opts.Channel != "" && len(cfg.Channels) > 0 {
		cfg.Channels[0].WatchChannelIDs = config.ChannelIDs{opts.Channel}
	}

	if err := config.SaveTo(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Initialized hookwatch at %s\n", path)
	if cfg.Discord.UserToken == "" {
		fmt.Fprintln(out, "  No token set: export WATCHER_USER_TOKEN or edit the file.")
	}
	fmt.Fprintln(out, "  Run `hookwatch validate` to check the rules.")
	return nil
}

// prompter 读取交互输入
type prompter struct {
	in  *bufio.Reader
	fd  int
	tty bool
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// secret reads without echo when stdin is a terminal.
func (p *prompter) secret(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
