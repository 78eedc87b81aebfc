// Package ui renders progress and reports on the terminal.
package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"drivesync/internal/domain"
	"drivesync/internal/usecase"
)

// ConsoleUI handles user interaction and progress rendering. It implements
// domain.ProgressSink and the engine's Confirmer.
type ConsoleUI struct {
	nonInteractive bool
	progress       *mpb.Progress

	mu           sync.Mutex
	bar          *mpb.Bar
	lastEnumTick time.Time
}

// NewConsoleUI returns a console renderer. nonInteractive disables prompts
// and progress bars.
func NewConsoleUI(nonInteractive bool) *ConsoleUI {
	var p *mpb.Progress
	if !nonInteractive {
		p = mpb.New(mpb.WithWidth(64))
	}
	return &ConsoleUI{
		nonInteractive: nonInteractive,
		progress:       p,
	}
}

// SetTotals starts the copy-phase bar once totals are known.
func (u *ConsoleUI) SetTotals(files, folders int) {
	if u.nonInteractive || files == 0 {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.bar = u.progress.AddBar(int64(files),
		mpb.PrependDecorators(
			decor.Name("files", decor.WC{W: 6}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WCSyncSpace), "done"),
		),
	)
}

// Update advances the bar for every decided file outcome.
func (u *ConsoleUI) Update(op domain.ProgressOp, path string) {
	switch op {
	case domain.OpCopySucceeded, domain.OpCopyFailed, domain.OpCopySkipped:
	default:
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.bar != nil {
		u.bar.Increment()
	}
}

// Enumerating renders a throttled one-line enumeration status. With an
// unknown total it falls back to a bare item count.
func (u *ConsoleUI) Enumerating(side string, processed, total int) {
	if u.nonInteractive {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := time.Now()
	if now.Sub(u.lastEnumTick) < 200*time.Millisecond {
		return
	}
	u.lastEnumTick = now

	if total > 0 {
		pct := float64(processed) / float64(total) * 100
		fmt.Printf("\rAnalyzing %s: %5.1f%% complete", side, pct)
	} else {
		fmt.Printf("\rAnalyzing %s: %d items", side, processed)
	}
}

// Wait flushes the progress bar output.
func (u *ConsoleUI) Wait() {
	fmt.Println()
	if u.progress != nil {
		u.mu.Lock()
		if u.bar != nil {
			u.bar.SetTotal(-1, true)
		}
		u.mu.Unlock()
		u.progress.Wait()
	}
}

// ConfirmPlan asks the operator to approve the computed plan. In
// non-interactive mode the plan is always approved.
func (u *ConsoleUI) ConfirmPlan(copies, folders int) (bool, error) {
	if u.nonInteractive {
		return true, nil
	}
	if copies == 0 && folders == 0 {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Copy %d files and create %d folders", copies, folders),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PromptFolderID asks for a folder id when the config does not carry one.
func (u *ConsoleUI) PromptFolderID(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("folder id cannot be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

// PrintSummary prints the final counters.
func (u *ConsoleUI) PrintSummary(stats usecase.Stats) {
	fmt.Println("\nSync Summary")
	fmt.Println("============")
	fmt.Printf("Total folders:     %d\n", stats.TotalFolders)
	fmt.Printf("Total files:       %d\n", stats.TotalFiles)
	fmt.Printf("Successful copies: %d\n", stats.SuccessfulCopies)
	fmt.Printf("Failed copies:     %d\n", stats.FailedCopies)
	fmt.Printf("Skipped copies:    %d\n", stats.SkippedCopies)
	fmt.Printf("Created folders:   %d\n", stats.CreatedFolders)
	fmt.Printf("Skipped folders:   %d\n", stats.SkippedFolders)
}

// PrintComparison prints the audit-mode report.
func (u *ConsoleUI) PrintComparison(c *usecase.Comparison) {
	fmt.Println("\nFolder Comparison Report")
	fmt.Println("========================")

	fmt.Println("\nOverall Statistics:")
	fmt.Printf("Source:      %d files, %d folders, %s\n",
		c.Source.TotalFiles, c.Source.TotalFolders, formatSize(c.Source.TotalSize))
	fmt.Printf("Destination: %d files, %d folders, %s\n",
		c.Dest.TotalFiles, c.Dest.TotalFolders, formatSize(c.Dest.TotalSize))

	fmt.Printf("\nElapsed: %.2fs\n", c.Elapsed.Seconds())
	fmt.Printf("Completion: %.1f%%\n", c.CompletionPct)

	fmt.Println("\nDirectory Structure:")
	fmt.Printf("Maximum depth: %d levels\n", c.Source.Depth.Max)
	fmt.Printf("Average depth: %.1f levels\n", c.Source.Depth.Average)

	printTopTypes(c.Source.FileTypes)
	printDiscrepancies(c)
}

func printTopTypes(types map[string]*usecase.TypeStat) {
	if len(types) == 0 {
		return
	}

	type typeEntry struct {
		ext  string
		stat *usecase.TypeStat
	}
	sorted := make([]typeEntry, 0, len(types))
	for ext, stat := range types {
		sorted = append(sorted, typeEntry{ext, stat})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].stat.Count > sorted[j].stat.Count })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	fmt.Println("\nTop File Types:")
	for _, e := range sorted {
		fmt.Printf("  .%s: %d files, %s\n", e.ext, e.stat.Count, formatSize(e.stat.TotalSize))
	}
}

func printDiscrepancies(c *usecase.Comparison) {
	if len(c.Discrepancies) == 0 && len(c.ExtraFolders) == 0 {
		fmt.Println("\nNo discrepancies found - folders are identical!")
		return
	}

	byKind := map[domain.DiscrepancyKind][]domain.Discrepancy{}
	for _, d := range c.Discrepancies {
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}

	fmt.Println("\nDiscrepancies Found:")
	printKind("Missing Files", byKind[domain.MissingFile])
	printKind("Size Mismatches", byKind[domain.SizeMismatch])
	printKind("Checksum Mismatches", byKind[domain.ChecksumMismatch])
	printKind("Missing Folders", byKind[domain.MissingFolder])

	if len(c.ExtraFolders) > 0 {
		fmt.Printf("\nExtra Folders (%d):\n", len(c.ExtraFolders))
		for _, path := range truncate(c.ExtraFolders) {
			fmt.Printf("  %s\n", path)
		}
		if len(c.ExtraFolders) > 10 {
			fmt.Printf("  ...and %d more\n", len(c.ExtraFolders)-10)
		}
	}
}

func printKind(title string, items []domain.Discrepancy) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(items))
	shown := items
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, d := range shown {
		switch d.Kind {
		case domain.SizeMismatch:
			fmt.Printf("  %s (source %s, destination %s)\n",
				d.Path, formatSize(d.SourceSize), formatSize(d.DestSize))
		default:
			fmt.Printf("  %s\n", d.Path)
		}
	}
	if len(items) > 10 {
		fmt.Printf("  ...and %d more\n", len(items)-10)
	}
}

// PrintTree prints an indented tree rendering.
func (u *ConsoleUI) PrintTree(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
}

func truncate(items []string) []string {
	if len(items) > 10 {
		return items[:10]
	}
	return items
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
