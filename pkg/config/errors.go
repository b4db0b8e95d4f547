package config

import "errors"

var ErrConfigIsNil = errors.New("config is nil")
var ErrMissingSiteID = errors.New("missing site id")
var ErrInvalidShards = errors.New("shard count must be a positive power of two")
var ErrInvalidScaleThreshold = errors.New("scale threshold must be positive")
var ErrUnknownApplier = errors.New("unknown applier")
var ErrUnknownLogLevel = errors.New("unknown log level")
var ErrUnknownLogFormat = errors.New("unknown log format")
