package rebalance

import "errors"

func isConfig(err error) bool { return errors.Is(err, ErrConfig) }

func isFormat(err error) bool { return errors.Is(err, ErrFormat) }
