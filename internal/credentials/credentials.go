// Package credentials resolves the secrets needed to reach the model
// provider.
//
// Bedrock uses the AWS default credential chain (environment, shared
// profile, SSO, instance role) unless a Bedrock API key is configured.
// Other providers use an API key taken from the settings, an environment
// variable or the output of a command.
package credentials

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/caarlos0/go-shellwords"

	"github.com/dotcommander/awsknow/internal/config"
	"github.com/dotcommander/awsknow/internal/errs"
)

// BedrockTokenEnv holds an optional Bedrock API key.
const BedrockTokenEnv = "AWS_BEARER_TOKEN_BEDROCK"

// Credentials are the resolved secrets. Secret material other than the API
// key is never copied out of the AWS SDK.
type Credentials struct {
	Source      string
	AccessKeyID string
	APIKey      string
	CanExpire   bool
	Expires     time.Time
}

// Provider resolves credentials.
type Provider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// Func adapts a function to Provider.
type Func func(ctx context.Context) (Credentials, error)

// Retrieve implements Provider.
func (f Func) Retrieve(ctx context.Context) (Credentials, error) { return f(ctx) }

// Static always returns the same credentials.
type Static Credentials

// Retrieve implements Provider.
func (s Static) Retrieve(context.Context) (Credentials, error) { return Credentials(s), nil }

// For returns the provider suited to the configured model.
func For(m config.Model) Provider {
	key := Key{Value: m.APIKey, Env: m.APIKeyEnv, Cmd: m.APIKeyCmd}
	switch m.Provider {
	case "bedrock":
		key.DefaultEnv = BedrockTokenEnv
		return AWS{Region: m.Region, Key: key}
	case "anthropic":
		key.DefaultEnv = "ANTHROPIC_API_KEY"
		key.DocsURL = "https://console.anthropic.com/settings/keys"
		key.Required = true
	case "openai":
		key.DefaultEnv = "OPENAI_API_KEY"
		key.DocsURL = "https://platform.openai.com/account/api-keys"
		key.Required = true
	}
	return key
}

// AWS resolves credentials through the AWS default chain.
type AWS struct {
	Region string
	// Key, when it yields a value, short-circuits the chain with a Bedrock
	// API key.
	Key Key
}

// Retrieve implements Provider.
func (a AWS) Retrieve(ctx context.Context) (Credentials, error) {
	creds, err := a.Key.Retrieve(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if creds.APIKey != "" {
		return creds, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.Region))
	if err != nil {
		return Credentials{}, errs.Init(err, "Could not load AWS configuration.")
	}
	if cfg.Credentials == nil {
		return Credentials{}, errs.Init(fmt.Errorf("no credential provider configured"), "AWS credentials not found.")
	}
	ac, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return Credentials{}, errs.Init(err, "AWS credentials not found.")
	}
	return fromAWS(ac), nil
}

func fromAWS(ac aws.Credentials) Credentials {
	return Credentials{
		Source:      ac.Source,
		AccessKeyID: ac.AccessKeyID,
		CanExpire:   ac.CanExpire,
		Expires:     ac.Expires,
	}
}

// Key resolves an API key. The explicit value wins, then Env, then the
// output of Cmd, then DefaultEnv.
type Key struct {
	Value      string
	Env        string
	Cmd        string
	DefaultEnv string
	DocsURL    string
	Required   bool
}

// Retrieve implements Provider.
func (k Key) Retrieve(ctx context.Context) (Credentials, error) {
	key := k.Value
	source := "settings"
	if key == "" && k.Env != "" && k.Cmd == "" {
		key = os.Getenv(k.Env)
		source = k.Env
	}
	if key == "" && k.Cmd != "" {
		args, err := shellwords.Parse(k.Cmd)
		if err != nil {
			return Credentials{}, errs.Init(err, "Failed to parse api-key-cmd")
		}
		if len(args) == 0 {
			return Credentials{}, errs.Init(fmt.Errorf("empty command"), "Failed to parse api-key-cmd")
		}
		// #nosec G204 -- api-key-cmd is explicitly configured by the local user.
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
		if err != nil {
			return Credentials{}, errs.Init(err, "Cannot exec api-key-cmd")
		}
		key = strings.TrimSpace(string(out))
		source = "api-key-cmd"
	}
	if key == "" && k.DefaultEnv != "" {
		key = os.Getenv(k.DefaultEnv)
		source = k.DefaultEnv
	}
	if key != "" {
		return Credentials{Source: source, APIKey: key}, nil
	}
	if !k.Required {
		return Credentials{}, nil
	}

	reason := "API key required."
	if k.DefaultEnv != "" {
		reason = fmt.Sprintf("%s required; set %s or model.api-key-cmd in the settings file.", k.DefaultEnv, k.DefaultEnv)
	}
	var err error = errs.UserErrorf("No API key configured")
	if k.DocsURL != "" {
		err = errs.UserErrorf("You can grab one at %s", k.DocsURL)
	}
	return Credentials{}, errs.Init(err, reason)
}
