package config

import (
	"time"

	"github.com/bethropolis/scribe/internal/component"
	"github.com/bethropolis/scribe/internal/core/block"
	"github.com/bethropolis/scribe/internal/core/history"
)

// Base application details
const AppName = "scribe"
const DefaultConfigFileName = "config.toml" // Main config file
const DefaultLogFileName = "scribe.log"
const DefaultDBFileName = "scribe.db"

// Editing defaults
const DefaultHistoryLimit = history.DefaultMaxHistory
const DefaultDebounce = history.DefaultDebounce
const DefaultSegmentWindow = block.DefaultWindow
const SystemClipboard = false

// Component width bounds, in percent
var DefaultWidthStep = component.DefaultOptions.WidthStep
var DefaultWidthMin = component.DefaultOptions.WidthMin
var DefaultWidthMax = component.DefaultOptions.WidthMax

// ReloadDebounce is how long the Loader waits after a file event before reloading.
const ReloadDebounce = 100 * time.Millisecond
