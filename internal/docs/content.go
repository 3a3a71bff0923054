package docs

import "github.com/jorge-barreto/sitegen/internal/markers"

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with sitegen",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "protocol",
		Title:   "Response Protocol",
		Summary: "Markers the model uses to create and edit files",
		Content: topicProtocol,
	},
	{
		Name:    "editing",
		Title:   "How Edits Are Applied",
		Summary: "Search/replace matching, dropped edits, and page merging",
		Content: topicEditing,
	},
	{
		Name:    "sessions",
		Title:   "Sessions and Failures",
		Summary: "Session states, cancellation, and failure reasons",
		Content: topicSessions,
	},
	{
		Name:    "storage",
		Title:   "Projects and History",
		Summary: "Where projects, commits, logs, and exports live",
		Content: topicStorage,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a workspace:

    mkdir my-sites && cd my-sites
    sitegen init

   This creates .sitegen/config.yaml.

2. Export your provider token (default: HF_TOKEN):

    export HF_TOKEN=hf_...

3. Generate a new site:

    sitegen new "a landing page for a coffee shop"

   Pages print as they stream in. When the response ends the project is
   stored and written to sites/<slug>/.

4. Ask for changes:

    sitegen edit coffee-shop "make the hero section dark"

   Only the pages the model touched change. A colored diff is printed.

5. Inspect:

    sitegen list
    sitegen show coffee-shop

Press Ctrl-C during a session to cancel it. Nothing is saved.
`

const topicConfig = `Configuration Reference
=======================

File: .sitegen/config.yaml

    name: my-sites                 # required
    provider:
      base-url: https://router.huggingface.co/v1
      model: deepseek-ai/DeepSeek-V3-0324
      name: ""                     # optional provider hint
      api-key-env: HF_TOKEN
      context-window: 131072
      max-output-tokens: 16384
      timeout: 10                  # minutes per session
    endpoint:                      # optional builder ask endpoint
      url: http://localhost:3000/api/ask
      token-env: BUILDER_TOKEN
    output-dir: sites
    store: .sitegen/projects.db
    log-dir: .sitegen/logs

Every field except 'name' has the default shown.

max-output-tokens must be smaller than context-window. Before each request
the prompt is measured and max tokens become the smaller of
max-output-tokens and the space left in the window. Requests leaving less
than 1024 tokens are rejected.

When 'endpoint' is set, prompts are posted to that URL as JSON and the
response body is streamed as raw text. Otherwise sitegen talks to the
provider through its OpenAI-compatible chat API.

output-dir and log-dir must be relative and must not contain '..'.
`

const topicProtocol = `Response Protocol
=================

The model answers in plain text framed by marker lines.

Project name (first response only):

    ` + markers.ProjectNameStart + ` Coffee Shop ` + markers.ProjectNameEnd + `

New file. The body is a fenced code block:

    ` + markers.NewFileStart + ` about.html ` + markers.NewFileEnd + `
    ` + markers.Fence + `html
    <!DOCTYPE html>
    ...
    ` + markers.Fence + `

Edit of an existing file. The body is one or more search/replace
instructions:

    ` + markers.UpdateFileStart + ` index.html ` + markers.UpdateFileEnd + `
    ` + markers.SearchStart + `
    <h1>Old title</h1>
    ` + markers.Divider + `
    <h1>New title</h1>
    ` + markers.ReplaceEnd + `

An empty search section inserts the replacement at the top of the file.

Reasoning wrapped in ` + markers.ThinkStart + `...` + markers.ThinkEnd + ` is shown while
streaming and never written to a page. Any other text is conversation and
is printed after the session.

A bare search/replace instruction outside any file block edits the current
page (the root document unless --page is given).

Language tags and stray fences are removed from file bodies. HTML
documents are closed when the stream ends early.
`

const topicEditing = `How Edits Are Applied
=====================

Each search section is matched exactly first. If that fails it is matched
again ignoring whitespace differences: runs of spaces and newlines inside
the search text match any whitespace, and whitespace before '>' is
optional. Only the first occurrence is replaced.

A search section that matches nothing is dropped. The session still
completes and the dropped edit is listed with its file name.

Edits to a file that does not exist are skipped the same way.

Every applied edit records the line range it touched in the new content.
Those ranges are stored with the commit.

After an edit session the stored page set is the previous set with each
touched page replaced in place. New pages are appended in the order they
appeared. Pages the model did not mention are kept unchanged.
`

const topicSessions = `Sessions and Failures
=====================

A session moves through:

    idle -> streaming -> finalizing -> completed
                      \-> failed
                      \-> cancelled

Only one session runs per controller. A second sitegen process editing the
same project fails with "project is locked".

While streaming, pages are previewed as soon as their header arrives. The
final page set is computed once from the complete response. Cancelling or
failing never saves anything.

Failure reasons:

    login_required      the endpoint wants an authenticated user
    provider_required   the endpoint wants an inference provider selected
    quota_exceeded      credits or quota are used up
    api_error           any other error response
    network_error       the request never reached the server

A failure payload can also appear inside the stream. sitegen detects it and
stops early.
`

const topicStorage = `Projects and History
====================

Projects and their commit history live in a bbolt database (store, default
.sitegen/projects.db). Each finished session appends a commit recording the
prompt, the touched paths and the changed line ranges.

Every raw response is written to log-dir as <session-id>.log. Replay one
with:

    sitegen replay .sitegen/logs/<id>.log

New projects get a README.md with front matter (title, colors, emoji).
'sitegen export <slug>' rewrites the pages into output-dir/<slug>.
`
