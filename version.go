package deka

// Version is the engine version reported by the CLI and the REPL banner.
const Version = "0.3.0"
