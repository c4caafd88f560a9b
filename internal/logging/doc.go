// Package logging builds the zap loggers used by orblink.
//
// Verbosity is a closed enum normalised once with ParseLevel:
//
//	silent   no output
//	errors   warnings and errors (default)
//	verbose  everything, including hex/ASCII dumps of modem traffic
//
// Loggers are passed explicitly to constructors:
//
//	level, err := logging.ParseLevel(flagLevel)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.New(level)
//	if err != nil {
//	    return err
//	}
//	exec, err := atcmd.NewExecutor(port, atcmd.DefaultConfig(), logger)
//
// Raw traffic is attached with RawFields, which caps dumps at 256 bytes:
//
//	logger.Debug("modem response", logging.RawFields(raw)...)
//
// Output goes to stderr in console format so that command output on stdout
// stays clean.
package logging
