// Package credential loads the KOT login and the SMTP account used for
// notifications.
package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var ErrMissingCredentials = errors.New("required credentials missing")

// Keys stored in the credentials file.
const (
	KeyKOTID         = "kot_id"
	KeyKOTPassword   = "kot_password"
	KeyGmailID       = "gmail_id"
	KeyGmailPassword = "gmail_password"
)

type Credentials struct {
	KOTID         string
	KOTPassword   string
	GmailID       string
	GmailPassword string
}

// Provider resolves credentials from the file, then the environment, and
// finally asks on the terminal.
type Provider struct {
	path     string
	needMail bool
	lookup   func(string) (string, bool)
	in       *bufio.Reader
	out      io.Writer
	log      zerolog.Logger
}

type Option func(*Provider)

// WithPrompt enables asking for missing values on in, echoing questions to out.
func WithPrompt(in io.Reader, out io.Writer) Option {
	return func(p *Provider) {
		p.in = bufio.NewReader(in)
		p.out = out
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(p *Provider) { p.lookup = fn }
}

// NewProvider reads from path. SMTP credentials are required only when needMail is set.
func NewProvider(path string, needMail bool, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{path: path, needMail: needMail, lookup: os.LookupEnv, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) required() []string {
	keys := []string{KeyKOTID, KeyKOTPassword}
	if p.needMail {
		keys = append(keys, KeyGmailID, KeyGmailPassword)
	}
	return keys
}

// Load returns once every required value is non-blank. Without a prompt, or
// when the prompt input ends, it fails with ErrMissingCredentials.
func (p *Provider) Load() (Credentials, error) {
	for {
		values, err := p.resolve()
		if err != nil {
			return Credentials{}, err
		}
		if missing := p.missing(values); len(missing) == 0 {
			p.log.Info().Msg("Credentials load successful")
			p.log.Debug().Str("kot_id", values[KeyKOTID]).Str("gmail_id", values[KeyGmailID]).Msg("Credentials")
			return Credentials{
				KOTID:         values[KeyKOTID],
				KOTPassword:   values[KeyKOTPassword],
				GmailID:       values[KeyGmailID],
				GmailPassword: values[KeyGmailPassword],
			}, nil
		} else if p.in == nil {
			return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
		}

		entered, err := p.prompt()
		if err != nil {
			return Credentials{}, err
		}
		if err := p.save(entered); err != nil {
			return Credentials{}, err
		}
	}
}

func (p *Provider) resolve() (map[string]string, error) {
	values := map[string]string{}
	if p.path != "" {
		fromFile, err := godotenv.Read(p.path)
		switch {
		case err == nil:
			values = fromFile
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read credentials file %s: %w", p.path, err)
		}
	}

	for _, key := range p.required() {
		lower, hasLower := p.lookup(key)
		if hasLower {
			p.log.Warn().Msgf("[DEPRECATION] lower-case ENV variable is deprecated, please use %s instead.", strings.ToUpper(key))
		}
		if upper, ok := p.lookup(strings.ToUpper(key)); ok {
			values[key] = upper
		} else if hasLower {
			values[key] = lower
		}
	}
	return values, nil
}

func (p *Provider) missing(values map[string]string) []string {
	var out []string
	for _, key := range p.required() {
		if strings.TrimSpace(values[key]) == "" {
			out = append(out, key)
		}
	}
	return out
}

func (p *Provider) prompt() (map[string]string, error) {
	fmt.Fprintln(p.out, "Required credentials missing, please enter:")
	entered := make(map[string]string)
	for _, key := range p.required() {
		fmt.Fprintf(p.out, "%s: ", key)
		line, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: input closed", ErrMissingCredentials)
			}
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		entered[key] = strings.TrimRight(line, "\r\n")
	}
	return entered, nil
}

// save replaces the credentials file, readable by the owner only.
func (p *Provider) save(values map[string]string) error {
	if p.path == "" {
		return fmt.Errorf("%w: no credentials file configured", ErrMissingCredentials)
	}
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open credentials file %s: %w", p.path, err)
	}
	defer f.Close()
	// An existing file keeps its mode on open.
	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("restrict credentials file %s: %w", p.path, err)
	}
	if _, err := f.WriteString(content + "\n"); err != nil {
		return fmt.Errorf("write credentials file %s: %w", p.path, err)
	}
	return f.Sync()
}
