package cli

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaklabco/mdsync/internal/ui/pretty"
)

// helpStyles are the Lipgloss styles used in help and usage output.
type helpStyles struct {
	Command     lipgloss.Style
	Heading     lipgloss.Style
	Subcommand  lipgloss.Style
	Flag        lipgloss.Style
	Description lipgloss.Style
	Example     lipgloss.Style
	Dim         lipgloss.Style
}

func newHelpStyles(colorEnabled bool) helpStyles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return helpStyles{plain, plain, plain, plain, plain, plain, plain}
	}
	return helpStyles{
		Command:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Heading:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Subcommand:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Flag:        lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Description: lipgloss.NewStyle(),
		Example:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

const usageTemplate = `{{ heading "Usage:" }}
  {{if .Runnable}}{{ command .UseLine }}{{end}}
  {{if .HasAvailableSubCommands}}{{ command .CommandPath }} [command]{{end}}

{{- if .HasExample}}

{{ heading "Examples:" }}
{{ example .Example }}
{{- end}}

{{- if .HasAvailableSubCommands}}

{{ heading "Commands:" }}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{ subcommand (rpad .Name .NamePadding) }} {{ .Short }}{{end}}{{end}}
{{- end}}

{{- if .HasAvailableLocalFlags}}

{{ heading "Flags:" }}
{{ flags .LocalFlags }}
{{- end}}

{{- if .HasAvailableInheritedFlags}}

{{ heading "Global Flags:" }}
{{ flags .InheritedFlags }}
{{- end}}

{{- if .HasAvailableSubCommands}}

Use "{{ command (print .CommandPath " [command] --help") }}" for more information about a command.
{{- end}}
`

const helpTemplate = `{{with (or .Long .Short)}}{{ trimRight . }}

{{end}}` + usageTemplate

// applyHelp installs styled help and usage output on cmd and, through
// inheritance, its subcommands. colorMode is read when help is printed so the
// --color flag is honored.
func applyHelp(cmd *cobra.Command, colorMode func() string) {
	funcs := func(command *cobra.Command) template.FuncMap {
		st := newHelpStyles(pretty.IsColorEnabled(colorMode(), command.OutOrStdout()))
		return template.FuncMap{
			"heading":    st.Heading.Render,
			"command":    st.Command.Render,
			"subcommand": st.Subcommand.Render,
			"example":    st.Example.Render,
			"flags":      func(fs *pflag.FlagSet) string { return styleFlags(fs.FlagUsages(), st) },
			"rpad":       rpad,
			"trimRight":  trimTrailingWhitespaces,
		}
	}

	execute := func(name, text string, command *cobra.Command) error {
		tmpl, err := template.New(name).Funcs(funcs(command)).Parse(text)
		if err != nil {
			return fmt.Errorf("parse %s template: %w", name, err)
		}
		return tmpl.Execute(command.OutOrStdout(), command)
	}

	cmd.SetUsageFunc(func(command *cobra.Command) error {
		return execute("usage", usageTemplate, command)
	})
	cmd.SetHelpFunc(func(command *cobra.Command, _ []string) {
		if err := execute("help", helpTemplate, command); err != nil {
			command.PrintErrln(err)
		}
	})
}

// styleFlags colors the flag names in pflag usage text and dims their types.
func styleFlags(usages string, st helpStyles) string {
	lines := strings.Split(strings.TrimSuffix(usages, "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		gap := strings.Index(trimmed, "   ")
		if gap < 0 {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		desc := strings.TrimLeft(trimmed[gap:], " ")

		tokens := strings.Fields(trimmed[:gap])
		for j, tok := range tokens {
			if name, ok := strings.CutSuffix(tok, ","); ok && strings.HasPrefix(name, "-") {
				tokens[j] = st.Flag.Render(name) + ","
			} else if strings.HasPrefix(tok, "-") {
				tokens[j] = st.Flag.Render(tok)
			} else {
				tokens[j] = st.Dim.Render(tok)
			}
		}
		lines[i] = indent + strings.Join(tokens, " ") + "   " + st.Description.Render(desc)
	}
	return strings.Join(lines, "\n")
}

func rpad(s string, padding int) string {
	if len(s) >= padding {
		return s
	}
	return s + strings.Repeat(" ", padding-len(s))
}

func trimTrailingWhitespaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
