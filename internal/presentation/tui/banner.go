package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for the avatar CLI.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Violet)
	s1 := termenv.String("                          _              ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String("     /\\                  | |             ").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String("    /  \\   __   __  __ _ | |_  __ _  _ __").Foreground(p.Color("#38bdf8"))
	s4 := termenv.String("   / /\\ \\  \\ \\ / / / _` || __|/ _` || '__|").Foreground(p.Color("#60a5fa"))
	s5 := termenv.String("  / ____ \\  \\ V / | (_| || |_| (_| || |").Foreground(p.Color("#818cf8"))
	s6 := termenv.String(" /_/    \\_\\  \\_/   \\__,_| \\__|\\__,_||_|").Foreground(p.Color("#a78bfa"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println()
}
