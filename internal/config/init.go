package config

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

const exampleConfig = `# mdpipeline configuration
site:
  url: https://example.com
  lang: en

# Optional pages. Disabled pages are dropped from the sitemap.
pages:
  sponsor: false
  guestbook: false
  bangumi: false
  gallery: false

pipeline:
  # Optional capabilities: git_dates
  enable: []
  # Any default capability may be disabled, e.g. [math, github_card]
  disable: []

reading_time:
  words_per_minute: 200

excerpt:
  length: 160
  marker: "<!-- more -->"

callouts:
  theme: github

email:
  method: base64 # base64 | rot13

code:
  light_theme: github
  dark_theme: github-dark
  no_line_numbers: [shellsession]
  collapse:
    enabled: true
    threshold: 15
    preview_lines: 8

github:
  api_url: https://api.github.com
  token: ${GITHUB_TOKEN}
  timeout: 5s
  rate: 5
  burst: 5
  cache_ttl: 24h

diagram:
  languages: [mermaid]
  # command: [mmdc, --input, "-", --output, "-", --outputFormat, svg]
  timeout: 10s

build:
  output_dir: dist
  state_path: .mdpipeline/state.db
  incremental: true
  retry:
    backoff: exponential
    initial_delay: 500ms
    max_delay: 10s
    max_retries: 2

metrics:
  # textfile: /var/lib/node_exporter/mdpipeline.prom

events:
  # url: nats://127.0.0.1:4222
  subject: mdpipeline.documents

git:
  dates: false
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return errors.FileSystemError("failed to write config file").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
