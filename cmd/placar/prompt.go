package main

import (
	"github.com/charmbracelet/huh"
)

// Prompts used by login; tests swap them out.
var (
	askString   = promptString
	askPassword = promptPassword
)

// runPrompt runs huh fields as one form with help hints shown.
func runPrompt(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).Run()
}

// promptString asks for a line of text.
func promptString(title string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(title).
		Value(&value)
	if err := runPrompt(inp); err != nil {
		return "", err
	}
	return value, nil
}

// promptPassword asks for a secret without echoing it.
func promptPassword(title string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value)
	if err := runPrompt(inp); err != nil {
		return "", err
	}
	return value, nil
}
