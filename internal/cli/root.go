// internal/cli/root.go
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hcert-verifier/internal/logging"
	"hcert-verifier/internal/models"
	"hcert-verifier/internal/services"
)

// ErrNotValid is returned by check and verify when the certificate fails.
// The result has already been printed at that point.
var ErrNotValid = errors.New("certificate is not valid")

type options struct {
	verbose  bool
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRootCommand builds the hcertctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "hcertctl",
		Short:         "Check and verify health certificate QR payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			logger, err := logging.NewCLI(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(
		newCheckCommand(),
		newVerifyCommand(opts),
		newHashCommand(),
	)
	return root
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [payload|-]",
		Short: "Run the offline format and integrity checks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), services.CheckCertFormat(raw))
		},
	}
}

func newVerifyCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [payload|-]",
		Short: "Run the offline checks and confirm with the verification service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd, args)
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: opts.timeout}
			verifier := services.NewCertificateVerificationService(client, "", opts.logger)
			result := verifier.VerifyCertificate(cmd.Context(), raw, &models.VerifyOptions{EndpointURL: opts.endpoint})
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "verification service URL (default "+services.DefaultVerificationURL+")")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout for the verification call")
	return cmd
}

func newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [payload|-]",
		Short: "Print the integrity hash computed from a payload's fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd, args)
			if err != nil {
				return err
			}

			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
				return errors.New(models.ErrInvalidJSON.Message())
			}
			obj, _ := decoded.(map[string]any)
			hash, ok := services.IntegrityHash(models.Payload(obj))
			if !ok {
				return fmt.Errorf("%s (required: %s)", models.ErrMissingField.Message(), strings.Join(models.RequiredFields, ", "))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// readPayload takes the payload from the first argument, or from stdin when
// there is none or it is "-".
func readPayload(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read payload from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func printResult(w io.Writer, result models.VerificationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if !result.Valid {
		out["reason_name"] = result.Reason.String()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if !result.Valid {
		return ErrNotValid
	}
	return nil
}
