package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/airyra/flowboard/internal/client"
	"github.com/airyra/flowboard/internal/config"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/identity"
)

// requestTimeout bounds every CLI call to the server.
const requestTimeout = 30 * time.Second

// getClient creates a client from the resolved config and identity
func getClient() (*client.Client, error) {
	cfg, err := config.ResolveConfig()
	if err != nil {
		return nil, err
	}

	return client.NewClient(cfg.ServerHost, cfg.ServerPort, cfg.Project, identity.Actor()), nil
}

// withClient runs fn against a configured client and handles its error.
func withClient(fn func(ctx context.Context, c *client.Client) error) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return fn(ctx, c)
}

// mapErrorToExitCode maps an error to the appropriate exit code
func mapErrorToExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, client.ErrServerNotRunning) {
		return ExitServerNotRunning
	}
	if errors.Is(err, config.ErrNoProjectConfig) {
		return ExitProjectNotConfigured
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeTaskNotFound, domain.ErrCodeStatusNotFound, domain.ErrCodeGroupNotFound:
			return ExitNotFound
		case domain.ErrCodeProjectNotFound:
			return ExitProjectNotConfigured
		case domain.ErrCodeValidationFailed, domain.ErrCodeNothingToRevert:
			return ExitInvalidInput
		case domain.ErrCodeWipLimitExceeded, domain.ErrCodeArchivedTarget, domain.ErrCodeDefaultStatusRequired:
			return ExitConflict
		default:
			return ExitGeneralError
		}
	}

	return ExitGeneralError
}

// handleError handles an error by printing it and exiting with the appropriate code
func handleError(err error) {
	if err == nil {
		return
	}

	printError(os.Stderr, err, format())
	os.Exit(mapErrorToExitCode(err))
}

// parsePriority accepts a priority name in any case, or its first letter.
func parsePriority(s string) (domain.Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH", "H":
		return domain.PriorityHigh, nil
	case "MEDIUM", "M":
		return domain.PriorityMedium, nil
	case "LOW", "L":
		return domain.PriorityLow, nil
	}
	return "", fmt.Errorf("invalid priority: %s (use high, medium or low)", s)
}
