// Package logging provides structured logging helpers for smartinbox.
//
// All logging goes through log/slog. This package builds the root logger
// from configuration and supplies consistently named attributes.
//
//	logger, err := logging.New("info", "json", os.Stderr)
//	if err != nil {
//	    return err
//	}
//	logger.Info("label applied",
//	    logging.MessageID(id),
//	    logging.MutationID(mutationID))
//
// Access tokens are never logged; use SanitizeToken. Recipient addresses are
// hashed with AnonymizeEmail.
package logging
