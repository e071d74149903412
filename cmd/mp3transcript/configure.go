package main

import (
	"errors"
	"fmt"

	"mp3transcript/pkg/channels/telegram"
	"mp3transcript/pkg/config"

	"github.com/manifoldco/promptui"
)

type ConfigureCMD struct{}

func (c *ConfigureCMD) Run(app *App) error {
	fmt.Println("🎙️ mp3transcript configuration wizard")
	fmt.Println("------------------------------------")

	cfg := *app.cfg

	providerNames := []string{config.ProviderReplicate, config.ProviderOpenAI, config.ProviderWhisperCLI}
	sel := promptui.Select{
		Label:     "Transcription provider",
		Items:     providerNames,
		CursorPos: indexOf(providerNames, cfg.Provider),
	}
	_, provider, err := sel.Run()
	if err != nil {
		return wizardErr(err)
	}
	cfg.Provider = provider

	switch provider {
	case config.ProviderReplicate:
		if cfg.ReplicateToken, err = ask("Replicate API token", cfg.ReplicateToken, true); err != nil {
			return wizardErr(err)
		}
		if cfg.Model, err = ask("Model (owner/name)", cfg.Model, false); err != nil {
			return wizardErr(err)
		}
		if cfg.ModelVersion, err = ask("Model version (blank for latest)", cfg.ModelVersion, false); err != nil {
			return wizardErr(err)
		}
	case config.ProviderOpenAI:
		if cfg.OpenAIBaseURL, err = ask("Base URL (blank for api.openai.com)", cfg.OpenAIBaseURL, false); err != nil {
			return wizardErr(err)
		}
		if cfg.OpenAIKey, err = ask("API key", cfg.OpenAIKey, true); err != nil {
			return wizardErr(err)
		}
		if cfg.OpenAIModel, err = ask("Model", cfg.OpenAIModel, false); err != nil {
			return wizardErr(err)
		}
	case config.ProviderWhisperCLI:
		if cfg.WhisperModel, err = ask("Whisper model", cfg.WhisperModel, false); err != nil {
			return wizardErr(err)
		}
	}

	if cfg.Language, err = ask("Language code (blank to auto-detect)", cfg.Language, false); err != nil {
		return wizardErr(err)
	}
	if cfg.TelegramToken, err = ask("Telegram bot token (optional)", cfg.TelegramToken, true); err != nil {
		return wizardErr(err)
	}
	if cfg.TelegramToken != "" {
		if cfg.TelegramChatID, err = ask("Telegram chat ID", cfg.TelegramChatID, false); err != nil {
			return wizardErr(err)
		}
		if _, err := telegram.ParseChatID(cfg.TelegramChatID); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(CLI.Config); err != nil {
		return err
	}
	fmt.Println("✅ Configuration saved.")
	fmt.Println("You can now run 'mp3transcript' to transcribe a file.")
	return nil
}

func ask(label, current string, secret bool) (string, error) {
	p := promptui.Prompt{Label: label, Default: current, AllowEdit: !secret}
	if secret {
		p.Mask = '*'
	}
	return p.Run()
}

func indexOf(items []string, v string) int {
	for i, it := range items {
		if it == v {
			return i
		}
	}
	return 0
}

func wizardErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		fmt.Println("Configuration cancelled.")
		return nil
	}
	return err
}

type ResetCMD struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (r *ResetCMD) Run(app *App) error {
	store := app.history()
	if store == nil {
		return errors.New("no history directory")
	}

	if !r.Yes {
		p := promptui.Prompt{
			Label:     fmt.Sprintf("🗑️ Delete the run history in %s", store.Path()),
			IsConfirm: true,
		}
		if _, err := p.Run(); err != nil {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	if err := store.Reset(); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	fmt.Println("✅ Run history cleared.")
	return nil
}
