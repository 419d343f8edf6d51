package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/framecut/framecut-agent/internal/timeline"
)

// BuildCuts flattens the lanes of one kind into a record-ordered cut
// sequence. Hidden clips are dropped; clips whose source media is missing are
// reported by name so the caller can surface them, and are dropped too.
func BuildCuts(tracks []timeline.Track, kind timeline.Kind, fps float64) ([]Cut, []string) {
	var clips []timeline.Clip
	for _, tr := range tracks {
		if tr.Kind != kind {
			continue
		}
		clips = append(clips, tr.Clips...)
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].StartFrame < clips[j].StartFrame })

	var cuts []Cut
	var unresolved []string
	for _, c := range clips {
		if c.Hidden {
			continue
		}
		if !c.SourcePresent {
			unresolved = append(unresolved, cutName(c))
			continue
		}
		srcIn := int64(math.Round(c.SourceStart * fps))
		cuts = append(cuts, Cut{
			Name:      cutName(c),
			MediaPath: c.Source,
			SrcIn:     srcIn,
			SrcOut:    srcIn + c.Duration(),
			RecIn:     c.StartFrame,
			RecOut:    c.EndFrame,
		})
	}
	return cuts, unresolved
}

func cutName(c timeline.Clip) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// GenerateEDL renders a CMX3600-style edit decision list from the cut
// sequence. Record timecodes reflect the cuts' timeline positions, gaps
// included.
func GenerateEDL(cuts []Cut, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, cut := range cuts {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				framesToTimecode(cut.SrcIn, fps), framesToTimecode(cut.SrcOut, fps),
				framesToTimecode(cut.RecIn, fps), framesToTimecode(cut.RecOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", cut.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", cut.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func framesToTimecode(totalFrames int64, fps int) string {
	frames := totalFrames % int64(fps)
	totalSeconds := totalFrames / int64(fps)
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
