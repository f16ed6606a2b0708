package cmd

import (
	"fmt"
	"io"

	"github.com/philipparndt/goslice/internal/ui"
)

type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type: bash, zsh, or fish"`
}

func (c *CompletionCmd) Run() error {
	return writeCompletion(ui.Out, c.Shell)
}

func writeCompletion(w io.Writer, shell string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion
	case "zsh":
		script = zshCompletion
	case "fish":
		script = fishCompletion
	default:
		return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

const bashCompletion = `# bash completion for goslice

_goslice_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main commands
    if [[ ${COMP_CWORD} -eq 1 ]]; then
        opts="slice preview stats inspect convert watch serve version completion"
        COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
        return 0
    fi

    case "${prev}" in
        -o|--output)
            COMPREPLY=( $(compgen -f -X '!*.gcode' -- ${cur}) )
            return 0
            ;;
        -p|--params|--config)
            COMPREPLY=( $(compgen -f -X '!*.@(yaml|yml|json)' -- ${cur}) )
            return 0
            ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error" -- ${cur}) )
            return 0
            ;;
    esac

    case "${COMP_WORDS[1]}" in
        slice|preview|watch|stats)
            if [[ ${cur} == -* ]]; then
                opts="-p --params -o --output --open --color --style --json --jobs -h --help --log-level"
                COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -X '!*.@(stl|STL|obj|OBJ)' -- ${cur}) )
            fi
            ;;
        inspect)
            COMPREPLY=( $(compgen -f -X '!*.gcode' -- ${cur}) )
            ;;
        convert)
            if [[ ${cur} == -* ]]; then
                opts="-o --output --ascii -h --help --log-level"
                COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -X '!*.@(stl|STL|obj|OBJ)' -- ${cur}) )
            fi
            ;;
        serve)
            opts="--config --addr -h --help --log-level"
            COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
            ;;
        completion)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
    return 0
}

complete -F _goslice_completions goslice
`

const zshCompletion = `#compdef goslice

_goslice() {
    local -a commands
    commands=(
        'slice:Generate G-code for a mesh'
        'preview:Print the G-code preview of a mesh'
        'stats:Show model statistics for meshes'
        'inspect:Summarize a G-code file'
        'convert:Repair a mesh and write it as STL'
        'watch:Regenerate G-code whenever a mesh changes'
        'serve:Run the HTTP API'
        'version:Show version information'
        'completion:Generate shell completion script'
    )

    local -a mesh_opts
    mesh_opts=(
        '(-p --params)'{-p,--params}'[Print parameters file]:params file:_files -g "*.{yaml,yml,json}"'
        '(-o --output)'{-o,--output}'[Output file path]:output file:_files -g "*.gcode"'
        '--open[Open the result in the default application]'
        '--color[Highlight the output]'
        '(-h --help)'{-h,--help}'[Show help]'
        '*:mesh file:_files -g "*.{stl,STL,obj,OBJ}"'
    )

    _arguments -C \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                slice|preview|watch|stats)
                    _arguments $mesh_opts
                    ;;
                inspect)
                    _arguments '*:gcode file:_files -g "*.gcode"'
                    ;;
                convert)
                    _arguments '(-o --output)'{-o,--output}'[Output STL path]:output file:_files -g "*.stl"' '--ascii[Write ASCII STL]' '*:mesh file:_files -g "*.{stl,STL,obj,OBJ}"'
                    ;;
                serve)
                    _arguments '--config[Server config file]:config file:_files' '--addr[Listen address]:address:'
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_goslice
`

const fishCompletion = `# fish completion for goslice

complete -c goslice -f -n "__fish_use_subcommand" -a "slice" -d "Generate G-code for a mesh"
complete -c goslice -f -n "__fish_use_subcommand" -a "preview" -d "Print the G-code preview of a mesh"
complete -c goslice -f -n "__fish_use_subcommand" -a "stats" -d "Show model statistics for meshes"
complete -c goslice -f -n "__fish_use_subcommand" -a "inspect" -d "Summarize a G-code file"
complete -c goslice -f -n "__fish_use_subcommand" -a "convert" -d "Repair a mesh and write it as STL"
complete -c goslice -f -n "__fish_use_subcommand" -a "watch" -d "Regenerate G-code whenever a mesh changes"
complete -c goslice -f -n "__fish_use_subcommand" -a "serve" -d "Run the HTTP API"
complete -c goslice -f -n "__fish_use_subcommand" -a "version" -d "Show version information"
complete -c goslice -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c goslice -n "__fish_seen_subcommand_from slice preview watch stats" -s p -l params -d "Print parameters file" -r
complete -c goslice -n "__fish_seen_subcommand_from slice watch" -s o -l output -d "Output file path" -r -a "(__fish_complete_suffix .gcode)"
complete -c goslice -f -n "__fish_seen_subcommand_from slice" -l open -d "Open the result in the default application"
complete -c goslice -f -n "__fish_seen_subcommand_from preview" -l color -d "Highlight the output"
complete -c goslice -f -n "__fish_seen_subcommand_from stats" -l json -d "Print JSON"
complete -c goslice -n "__fish_seen_subcommand_from slice preview watch stats convert" -a "(__fish_complete_suffix .stl)" -d "STL file"
complete -c goslice -n "__fish_seen_subcommand_from slice preview watch stats convert" -a "(__fish_complete_suffix .obj)" -d "OBJ file"
complete -c goslice -f -n "__fish_seen_subcommand_from convert" -l ascii -d "Write ASCII STL"
complete -c goslice -n "__fish_seen_subcommand_from inspect" -a "(__fish_complete_suffix .gcode)" -d "G-code file"
complete -c goslice -n "__fish_seen_subcommand_from serve" -l config -d "Server config file" -r
complete -c goslice -f -n "__fish_seen_subcommand_from serve" -l addr -d "Listen address" -r
complete -c goslice -f -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`

func (c *CompletionCmd) Help() string {
	return `
Generate shell completion scripts for goslice.

Examples:
  # Bash
  goslice completion bash > ~/.local/share/bash-completion/completions/goslice

  # Zsh
  goslice completion zsh > ~/.zsh/completion/_goslice

  # Fish
  goslice completion fish > ~/.config/fish/completions/goslice.fish
`
}
