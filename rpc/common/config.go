package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Context configuration struct
// --------------------------------------------------------------------------

const (
	DefaultSendRetryMax          = 100000
	DefaultMaxRequestCount       = 100000
	DefaultMaxRequestPutAttempts = 5
	DefaultRequestTimeout        = 60 * time.Second
	DefaultTasksPerTick          = 16
	DefaultFramesPerPoll         = 16
	DefaultSendBufferSize        = 1 << 20
)

// ContextConfig holds the tunables of a messaging context
type ContextConfig struct {
	// SendRetryMax is how often an offer is retried under backpressure
	SendRetryMax int
	// MaxRequestCount is the number of slots for in-flight inbound requests
	MaxRequestCount int
	// MaxRequestPutAttempts is the number of random probes before a slot is evicted
	MaxRequestPutAttempts int
	// RequestTimeout bounds how long an inbound request may stay unanswered
	RequestTimeout time.Duration
	// TasksPerTick limits the scheduled tasks executed per loop iteration
	TasksPerTick int
	// FramesPerPoll limits the frames taken from one subscription per loop iteration
	FramesPerPoll int
	// SendBufferSize is the initial capacity of the frame encode buffer
	SendBufferSize int
}

// DefaultContextConfig returns the default tunables
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		SendRetryMax:          DefaultSendRetryMax,
		MaxRequestCount:       DefaultMaxRequestCount,
		MaxRequestPutAttempts: DefaultMaxRequestPutAttempts,
		RequestTimeout:        DefaultRequestTimeout,
		TasksPerTick:          DefaultTasksPerTick,
		FramesPerPoll:         DefaultFramesPerPoll,
		SendBufferSize:        DefaultSendBufferSize,
	}
}

// WithDefaults replaces unset (zero or negative) fields by their defaults
func (c ContextConfig) WithDefaults() ContextConfig {
	d := DefaultContextConfig()
	if c.SendRetryMax <= 0 {
		c.SendRetryMax = d.SendRetryMax
	}
	if c.MaxRequestCount <= 0 {
		c.MaxRequestCount = d.MaxRequestCount
	}
	if c.MaxRequestPutAttempts <= 0 {
		c.MaxRequestPutAttempts = d.MaxRequestPutAttempts
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.TasksPerTick <= 0 {
		c.TasksPerTick = d.TasksPerTick
	}
	if c.FramesPerPoll <= 0 {
		c.FramesPerPoll = d.FramesPerPoll
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	return c
}

// writeTo appends the context section to a config printout
func (c *ContextConfig) writeTo(addSection func(string), addField func(string, string)) {
	addSection("Messaging Context")
	addField("Send Retry Max", strconv.Itoa(c.SendRetryMax))
	addField("Max Requests", strconv.Itoa(c.MaxRequestCount))
	addField("Max Put Attempts", strconv.Itoa(c.MaxRequestPutAttempts))
	addField("Request Timeout", c.RequestTimeout.String())
	addField("Tasks Per Tick", strconv.Itoa(c.TasksPerTick))
	addField("Frames Per Poll", strconv.Itoa(c.FramesPerPoll))
	addField("Send Buffer", fmt.Sprintf("%d KB", c.SendBufferSize/1024))
}

// String returns a formatted string representation of the configuration
func (c *ContextConfig) String() string {
	var sb strings.Builder
	addSection, addField := printer(&sb)
	c.writeTo(addSection, addField)
	return sb.String()
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a kvmsg server node
type ServerConfig struct {
	Context ContextConfig

	// Endpoint is the address the node listens on and announces as sender
	Endpoint string
	// Transport selects the network channel (udp, tcp, memory)
	Transport string
	// IPCDir is the directory for intra-host sockets, empty disables them
	IPCDir string
	// Serializer selects the payload codec
	Serializer string

	// MetricsEndpoint is the HTTP address for the prometheus endpoint, empty disables it
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder
	addSection, addField := printer(&sb)

	addSection("Server")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("IPC Directory", orDisabled(c.IPCDir))
	addField("Serializer", c.Serializer)
	addField("Metrics Endpoint", orDisabled(c.MetricsEndpoint))

	c.Context.writeTo(addSection, addField)

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of a kvmsg client
type ClientConfig struct {
	Context ContextConfig

	// Address is the local address responses are sent to
	Address string
	// Endpoints are the servers requests are balanced over
	Endpoints []string
	// Timeout is the deadline of a single request
	Timeout time.Duration
	// Transport selects the network channel (udp, tcp, memory)
	Transport string
	// IPCDir is the directory for intra-host sockets, empty disables them
	IPCDir string
	// Serializer selects the payload codec
	Serializer string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder
	addSection, addField := printer(&sb)

	addSection("Client Configuration")
	addField("Address", c.Address)
	addField("Timeout", c.Timeout.String())
	addField("Transport", c.Transport)
	addField("IPC Directory", orDisabled(c.IPCDir))
	addField("Serializer", c.Serializer)

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	c.Context.writeTo(addSection, addField)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printer creates helper functions for consistent formatting
func printer(sb *strings.Builder) (func(string), func(string, string)) {
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	return addSection, addField
}

func orDisabled(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
