// Package catalog holds the voices used for dataset generation and prints
// voice listings.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/book-expert/speechkit/internal/core"
)

// DatasetVoices is the en-US catalog that batch generation picks from.
var DatasetVoices = []string{
	"en-US-AvaMultilingualNeural",
	"en-US-AndrewMultilingualNeural",
	"en-US-AmandaMultilingualNeural",
	"en-US-AdamMultilingualNeural",
	"en-US-EmmaMultilingualNeural",
	"en-US-PhoebeMultilingualNeural",
	"en-US-AlloyTurboMultilingualNeural",
	"en-US-EchoTurboMultilingualNeural",
	"en-US-FableTurboMultilingualNeural",
	"en-US-OnyxTurboMultilingualNeural",
	"en-US-NovaTurboMultilingualNeural",
	"en-US-ShimmerTurboMultilingualNeural",
	"en-US-BrianMultilingualNeural",
	"en-US-AvaNeural",
	"en-US-AndrewNeural",
	"en-US-EmmaNeural",
	"en-US-BrianNeural",
	"en-US-JennyNeural",
	"en-US-GuyNeural",
	"en-US-AriaNeural",
	"en-US-DavisNeural",
	"en-US-JaneNeural",
	"en-US-JasonNeural",
	"en-US-KaiNeural",
	"en-US-LunaNeural",
	"en-US-SaraNeural",
	"en-US-TonyNeural",
	"en-US-NancyNeural",
	"en-US-CoraMultilingualNeural",
	"en-US-ChristopherMultilingualNeural",
	"en-US-BrandonMultilingualNeural",
	"en-US-AmberNeural",
	"en-US-AnaNeural",
	"en-US-AshleyNeural",
	"en-US-BrandonNeural",
	"en-US-ChristopherNeural",
	"en-US-CoraNeural",
	"en-US-DavisMultilingualNeural",
	"en-US-DerekMultilingualNeural",
	"en-US-DustinMultilingualNeural",
	"en-US-ElizabethNeural",
	"en-US-EricNeural",
	"en-US-JacobNeural",
}

// FilterByLocale returns the voices whose locale matches, ignoring case.
// An empty locale returns voices unchanged.
func FilterByLocale(voices []core.Voice, locale string) []core.Voice {
	if locale == "" {
		return voices
	}

	var filtered []core.Voice

	for _, voice := range voices {
		if strings.EqualFold(voice.Locale, locale) {
			filtered = append(filtered, voice)
		}
	}

	return filtered
}

// ShowVoices lists every voice in the region, narrows the listing to locale
// and prints it.
func ShowVoices(ctx context.Context, lister core.VoiceLister, w io.Writer, region, locale string) error {
	voices, err := lister.ListVoices(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list voices in region '%s': %w", region, err)
	}

	PrintVoices(w, region, FilterByLocale(voices, locale))

	return nil
}

// PrintVoices writes a region listing in the form shown by the voices command.
func PrintVoices(w io.Writer, region string, voices []core.Voice) {
	fmt.Fprintf(w, "Voices in region '%s': %d\n", region, len(voices))

	for _, voice := range voices {
		fmt.Fprintf(w, " - %s | locale=%s | gender=%s\n", voice.Name, voice.Locale, voice.Gender)
	}
}

// LocaleOf returns the locale prefix of a voice name such as "en-US-AvaNeural".
func LocaleOf(voiceName string) string {
	parts := strings.SplitN(voiceName, "-", 3)
	if len(parts) < 3 {
		return ""
	}

	return parts[0] + "-" + parts[1]
}
