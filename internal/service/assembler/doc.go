// Package assembler turns a downloaded LÖVE runtime plus a game archive into
// the zipped, platform-native artifact for linux, windows or macos.
//
// Every variant works below an explicit workspace directory and never changes
// the process working directory. External programs are reached through
// tool.Runner so tests can simulate them.
package assembler
