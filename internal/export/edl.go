package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cutline/cutline-studio/internal/timeline"
)

// GenerateEDL writes a CMX3600 edit decision list with one event per clip,
// grouped by track in track order and sorted by start time within a track.
func GenerateEDL(tracks []timeline.Track, clips []timeline.Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	for _, track := range tracks {
		onTrack := make([]timeline.Clip, 0)
		for _, c := range clips {
			if c.TrackID == track.ID {
				onTrack = append(onTrack, c)
			}
		}
		sort.SliceStable(onTrack, func(i, j int) bool {
			return onTrack[i].StartTime < onTrack[j].StartTime
		})

		channel := "V"
		if track.Kind == timeline.TrackAudio {
			channel = "A"
		}

		for _, c := range onTrack {
			event++
			srcIn := secondsToTimecode(c.TrimStart, fps)
			srcOut := secondsToTimecode(c.TrimStart+c.Duration, fps)
			recIn := secondsToTimecode(c.StartTime, fps)
			recOut := secondsToTimecode(c.EndTime, fps)

			lines = append(lines,
				fmt.Sprintf("%03d  %-8s %-5s %-8s %s %s %s %s", event, "AX", channel, editCode(c, fps), srcIn, srcOut, recIn, recOut),
				fmt.Sprintf("* FROM CLIP NAME:  %s", SanitizeName(c.Name, 120)),
				fmt.Sprintf("* TRACK:  %s", SanitizeName(track.Name, 60)),
			)
			for _, e := range c.Effects {
				if e.Type != timeline.EffectTransition {
					lines = append(lines, fmt.Sprintf("* EFFECT:  %s", e.Name))
				}
			}
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// editCode is "C" for a cut, or "D" plus the duration in frames when the
// clip carries a fade or dissolve.
func editCode(c timeline.Clip, fps int) string {
	for _, e := range c.Effects {
		if e.Type != timeline.EffectTransition || e.Transition == nil {
			continue
		}
		switch e.Transition.TransitionType {
		case timeline.TransitionFade, timeline.TransitionDissolve:
			frames := int(math.Round(e.Transition.Duration * float64(fps)))
			return fmt.Sprintf("D    %03d", frames)
		}
	}
	return "C"
}

func secondsToTimecode(seconds float64, fps int) string {
	if seconds < 0 {
		seconds = 0
	}
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}
