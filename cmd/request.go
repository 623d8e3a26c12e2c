package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqdesk/internal/app"
	"github.com/vedsharma/reqdesk/internal/format"
	"github.com/vedsharma/reqdesk/internal/model"
)

var (
	headers     []string
	data        string
	bodyKind    string
	requestName string
	noHistory   bool
	saveRequest bool
)

func init() {
	for _, m := range model.Methods {
		method := m
		c := &cobra.Command{
			Use:   strings.ToLower(string(method)) + " <url>",
			Short: fmt.Sprintf("Send a %s request", method),
			Args:  cobra.ExactArgs(1),
			Run:   runRequest(method),
		}
		addRequestFlags(c)
		c.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")
		c.Flags().BoolVar(&saveRequest, "save", false, "Add the request to saved requests")
		rootCmd.AddCommand(c)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header (can be used multiple times)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (string or @filename)")
	cmd.Flags().StringVar(&bodyKind, "body-kind", "", "Body type: json, text, form-data or none (default json when -d is set)")
	cmd.Flags().StringVar(&requestName, "name", "", "Request name")
}

func runRequest(method model.Method) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		req, err := buildRequest(method, args[0])
		if err != nil {
			exitWithError("%v", err)
		}

		recording := cfg.RecordHistory && !noHistory
		if recording && !cfg.RedactHistory && app.LooksSensitive(req.Body) {
			format.PrintWarning("Request body may contain sensitive data (e.g., passwords, tokens). This will be stored in history.")
			format.PrintWarning("Use --no-history to skip storing this request.")
		}

		s := session
		if noHistory {
			s = s.WithoutHistory()
		}

		entry, err := s.Send(cmd.Context(), req)
		if err != nil {
			exitWithError("Request failed: %v", err)
		}

		format.PrintResponse(entry.Response, verbose)

		if saveRequest {
			store.SaveRequest(req)
			format.PrintSuccess(fmt.Sprintf("Saved as '%s' (%s)", req.DisplayName(), req.ID))
		}
	}
}

// buildRequest assembles a request from the command line flags
func buildRequest(method model.Method, url string) (model.Request, error) {
	req := model.NewRequest()
	req.Method = method
	req.URL = url
	req.Headers = parseHeaders(headers)
	if requestName != "" {
		req.Name = requestName
	}

	body := data
	if strings.HasPrefix(body, "@") {
		content, err := readBodyFromFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return model.Request{}, fmt.Errorf("failed to read file: %w", err)
		}
		body = content
	}
	req.Body = body

	kind := bodyKind
	if kind == "" && body != "" {
		kind = string(model.BodyJSON)
	}
	parsed, err := model.ParseBodyKind(kind)
	if err != nil {
		return model.Request{}, err
	}
	req.BodyKind = parsed

	if strings.TrimSpace(req.URL) == "" {
		return model.Request{}, app.ErrEmptyURL
	}
	return req, nil
}

func parseHeaders(headerStrings []string) map[string]string {
	result := make(map[string]string)
	for _, h := range headerStrings {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	// Clean the path to resolve any .. or . components
	cleanPath := filepath.Clean(absPath)

	if !withinDir(cleanPath, wd) {
		return "", errors.New("access denied: file must be within current directory")
	}

	// Symlink targets must stay inside the working directory too
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if !withinDir(realPath, wd) {
		return "", errors.New("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

func withinDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
