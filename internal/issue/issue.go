// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	OperationNotFoundId Id = iota + 1
	MissingArgumentId
	UnexpectedArgumentId
	VenvNotFoundId
	InterpreterNotFoundId
	ScriptExecutionFailedId
	DocumentNotFoundId
	DocumentParseErrorId
	ConfigurationKeyMissingId
	ConfigLoadFailedId
	InvalidRuntimeModeId
	RuntimeNotAvailableId
	PermissionDeniedId
	ServeFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue Markdown with glamour. An empty stylePath
// selects glamour's automatic style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	operationNotFoundIssue = &Issue{
		id: OperationNotFoundId,
		mdMsg: `
# Operation not found!

pubctl only knows a fixed set of operations, one per tool script.

## Things you can try:
- List the available operations:
~~~
$ pubctl list
~~~

- Check the spelling of the operation name
- Use 'pubctl run <operation>' when the name comes from a variable`,
	}

	missingArgumentIssue = &Issue{
		id: MissingArgumentId,
		mdMsg: `
# Missing argument!

The operation needs more positional arguments than were given.

## Things you can try:
- Check the usage line printed above the error
- 'check' and 'validate' take a path, 'status', 'provision' and 'deploy' take a host:
~~~
$ pubctl check docs/
$ pubctl deploy prod1
~~~`,
	}

	unexpectedArgumentIssue = &Issue{
		id: UnexpectedArgumentId,
		mdMsg: `
# Unexpected argument!

The operation does not accept extra arguments.

## Things you can try:
- Remove the extra arguments
- Run 'pubctl list' to see each operation's usage`,
	}

	venvNotFoundIssue = &Issue{
		id: VenvNotFoundId,
		mdMsg: `
# Virtual environment not found!

Every operation runs inside the repository's Python virtual environment,
and it could not be found.

## Things you can try:
- Create the environment in the repository root:
~~~
$ python3 -m venv venv
$ venv/bin/pip install -r requirements.txt
~~~

- Point pubctl at another directory with the 'venv' setting or PUBCTL_VENV
- Check the repository root with 'pubctl config path'`,
	}

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# Interpreter not found!

The child process exited with status 127, which usually means the
interpreter or the script does not exist.

## Things you can try:
- Check that the venv contains the configured interpreter (default 'python3')
- Check that the tool script exists under 'tools/'
- Inspect the resolved command without running it:
~~~
$ pubctl --pc-dry-run check docs/
~~~`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed!

The tool script exited with a non-zero status. pubctl exits with the same
status.

## Things you can try:
- Read the script output above for the cause
- Re-run with verbose logging:
~~~
$ pubctl -v <operation> ...
~~~`,
	}

	documentNotFoundIssue = &Issue{
		id: DocumentNotFoundId,
		mdMsg: `
# Configuration document not found!

The pubpublica configuration document could not be read.

## Things you can try:
- Run pubctl from the repository root, or pass '--pc-root'
- Pass the document explicitly:
~~~
$ pubctl --pc-document ./pubpublica.json config show
~~~`,
	}

	documentParseErrorIssue = &Issue{
		id: DocumentParseErrorId,
		mdMsg: `
# Failed to parse the configuration document!

The document is not valid JSON, CUE or TOML, or a value has the wrong type.

## Common issues:
- Section names are upper case, e.g. 'DEPLOY'
- Values are strings, integers or lists of strings
- 'REDIS_PORT' must be an integer between 1 and 65535

## Things you can try:
- Validate the document:
~~~
$ pubctl config validate
~~~`,
	}

	configurationKeyMissingIssue = &Issue{
		id: ConfigurationKeyMissingId,
		mdMsg: `
# Configuration key missing!

A required section or key is absent from the configuration document.

## Things you can try:
- List every missing key:
~~~
$ pubctl config validate
~~~

- Add the key to its section, e.g.:
~~~json
"REDIS": {
    "REDIS_HOST": "localhost",
    "REDIS_PORT": 6379
}
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load pubctl settings!

The settings file has a syntax error or a value outside the schema.

## Things you can try:
- Show where settings are loaded from:
~~~
$ pubctl config path
~~~

- Check 'default_runtime' is one of native, virtual or tty
- Remove the file to fall back to defaults`,
	}

	invalidRuntimeModeIssue = &Issue{
		id: InvalidRuntimeModeId,
		mdMsg: `
# Invalid runtime mode!

## Valid runtime modes:
- **native**: run the interpreter directly with an activated environment
- **virtual**: source the venv activate script in the embedded shell
- **tty**: like native, attached to a pseudo-terminal

## Things you can try:
~~~
$ pubctl --pc-runtime virtual test
~~~`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The selected runtime cannot run on this system.

## Things you can try:
- Use the native runtime:
~~~
$ pubctl --pc-runtime native <operation> ...
~~~

- The tty runtime needs a Unix pseudo-terminal`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Things you can try:
- Check that the interpreter in the venv is executable
- Check permissions on the repository root and the tool scripts`,
	}

	serveFailedIssue = &Issue{
		id: ServeFailedId,
		mdMsg: `
# Failed to start the dispatch server!

## Things you can try:
- Check that the listen address is free:
~~~
$ pubctl serve --listen 127.0.0.1:2223
~~~

- Check that the host key path is writable
- Check that the authorized keys file exists`,
	}

	issues = map[Id]*Issue{
		operationNotFoundIssue.Id():       operationNotFoundIssue,
		missingArgumentIssue.Id():         missingArgumentIssue,
		unexpectedArgumentIssue.Id():      unexpectedArgumentIssue,
		venvNotFoundIssue.Id():            venvNotFoundIssue,
		interpreterNotFoundIssue.Id():     interpreterNotFoundIssue,
		scriptExecutionFailedIssue.Id():   scriptExecutionFailedIssue,
		documentNotFoundIssue.Id():        documentNotFoundIssue,
		documentParseErrorIssue.Id():      documentParseErrorIssue,
		configurationKeyMissingIssue.Id(): configurationKeyMissingIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		invalidRuntimeModeIssue.Id():      invalidRuntimeModeIssue,
		runtimeNotAvailableIssue.Id():     runtimeNotAvailableIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
		serveFailedIssue.Id():             serveFailedIssue,
	}
)

// Values returns every catalog issue ordered by Id.
func Values() []*Issue {
	values := maps.Values(issues)
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
