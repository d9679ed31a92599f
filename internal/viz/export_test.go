package viz

var TerminalSize = terminalSize
