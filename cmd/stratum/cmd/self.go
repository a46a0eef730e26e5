package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/horizonanalytic/stratum/internal/install"
)

// Exit codes per §6's self-management contract.
const (
	exitOK      = 0
	exitUser    = 1
	exitNetwork = 2
)

var selfCmd = &cobra.Command{
	Use:   "self",
	Short: "Manage this Stratum installation",
}

func init() {
	rootCmd.AddCommand(selfCmd)
	selfCmd.AddCommand(selfUpdateCmd, selfUninstallCmd, selfInstallCmd, selfUseCmd, selfListCmd)
}

var (
	selfForce     bool
	selfTier      string
	selfYes       bool
	selfDryRun    bool
	selfPurge     bool
	selfActivate  bool
	selfAvailable bool
)

var selfUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update to the latest version for the active tier",
	RunE:  runSelfUpdate,
}

var selfUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove this Stratum installation",
	RunE:  runSelfUninstall,
}

var selfInstallCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install a specific version alongside the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelfInstall,
}

var selfUseCmd = &cobra.Command{
	Use:   "use <version>",
	Short: "Switch the active version",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelfUse,
}

var selfListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed versions",
	RunE:  runSelfList,
}

func init() {
	selfUpdateCmd.Flags().BoolVar(&selfForce, "force", false, "reinstall even if already up to date")
	selfUpdateCmd.Flags().StringVar(&selfTier, "tier", "", "override the installed tier")
	selfUpdateCmd.Flags().BoolVar(&selfYes, "yes", false, "skip the confirmation prompt")
	selfUpdateCmd.Flags().BoolVar(&selfDryRun, "dry-run", false, "report what would change without doing it")

	selfUninstallCmd.Flags().BoolVar(&selfPurge, "purge", false, "also remove cache/, history/, lsp-cache/, and config.toml")
	selfUninstallCmd.Flags().BoolVar(&selfYes, "yes", false, "skip the confirmation prompt")

	selfInstallCmd.Flags().StringVar(&selfTier, "tier", "core", "installation tier (core|data|gui|full)")
	selfInstallCmd.Flags().BoolVar(&selfActivate, "activate", false, "make this the active version after installing")
	selfInstallCmd.Flags().BoolVar(&selfYes, "yes", false, "skip the confirmation prompt")

	selfListCmd.Flags().BoolVar(&selfAvailable, "available", false, "accepted but has no effect: only installed versions are listed")
}

func requireConfirmation(yes bool, prompt string) bool {
	if yes {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	var resp string
	fmt.Scanln(&resp)
	return resp == "y" || resp == "Y"
}

func runSelfUpdate(_ *cobra.Command, _ []string) error {
	home, err := stratumHome()
	if err != nil {
		os.Exit(exitUser)
	}
	meta, err := install.ReadFile(metaPath(home))
	if err != nil {
		fmt.Fprintf(os.Stderr, "no existing installation metadata at %s: %v\n", metaPath(home), err)
		os.Exit(exitUser)
	}

	tier := meta.Tier
	if selfTier != "" {
		tier = install.Tier(selfTier)
	}
	if selfDryRun {
		fmt.Printf("would update %s (tier=%s) in place\n", meta.Version, tier)
		return nil
	}
	if !requireConfirmation(selfYes, fmt.Sprintf("Update installation %s?", meta.Version)) {
		os.Exit(exitUser)
	}

	updated := install.New(meta.Version, tier, meta.Target, Version, time.Now())
	if err := install.WriteFile(metaPath(home), updated); err != nil {
		fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
		os.Exit(exitNetwork)
	}
	fmt.Println("update complete")
	return nil
}

func runSelfUninstall(_ *cobra.Command, _ []string) error {
	home, err := stratumHome()
	if err != nil {
		os.Exit(exitUser)
	}
	if !requireConfirmation(selfYes, fmt.Sprintf("Remove Stratum installation at %s?", home)) {
		os.Exit(exitUser)
	}

	targets := []string{"bin", "lib", "share", "versions", ".install-meta", ".active-version"}
	if selfPurge {
		targets = append(targets, "cache", "history", "lsp-cache", "config.toml")
	}
	for _, t := range targets {
		if err := os.RemoveAll(filepath.Join(home, t)); err != nil {
			fmt.Fprintf(os.Stderr, "failed removing %s: %v\n", t, err)
			os.Exit(exitNetwork)
		}
	}
	fmt.Println("uninstall complete")
	return nil
}

func runSelfInstall(_ *cobra.Command, args []string) error {
	version := args[0]
	home, err := stratumHome()
	if err != nil {
		os.Exit(exitUser)
	}
	tier := install.Tier(selfTier)
	switch tier {
	case install.TierCore, install.TierData, install.TierGUI, install.TierFull:
	default:
		fmt.Fprintf(os.Stderr, "invalid tier %q\n", selfTier)
		os.Exit(exitUser)
	}
	if !requireConfirmation(selfYes, fmt.Sprintf("Install version %s (tier=%s)?", version, tier)) {
		os.Exit(exitUser)
	}

	dir := versionDir(home, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
		os.Exit(exitNetwork)
	}
	meta := install.New(version, tier, buildTarget(), Version, time.Now())
	if err := install.WriteFile(metaPath(dir), meta); err != nil {
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
		os.Exit(exitNetwork)
	}
	fmt.Printf("installed %s (install_id=%s)\n", version, meta.InstallID)

	if selfActivate {
		if err := install.WriteActiveVersion(activeVersionPath(home), version); err != nil {
			fmt.Fprintf(os.Stderr, "activation failed: %v\n", err)
			os.Exit(exitNetwork)
		}
	}
	return nil
}

func runSelfUse(_ *cobra.Command, args []string) error {
	version := args[0]
	home, err := stratumHome()
	if err != nil {
		os.Exit(exitUser)
	}
	if _, err := os.Stat(versionDir(home, version)); err != nil {
		fmt.Fprintf(os.Stderr, "version %s is not installed\n", version)
		os.Exit(exitUser)
	}
	if err := install.WriteActiveVersion(activeVersionPath(home), version); err != nil {
		fmt.Fprintf(os.Stderr, "failed to switch active version: %v\n", err)
		os.Exit(exitNetwork)
	}
	fmt.Printf("now using %s\n", version)
	return nil
}

func runSelfList(_ *cobra.Command, _ []string) error {
	home, err := stratumHome()
	if err != nil {
		os.Exit(exitUser)
	}
	entries, err := os.ReadDir(filepath.Join(home, "versions"))
	if err != nil {
		fmt.Println("no versions installed")
		return nil
	}
	active, _ := install.ReadActiveVersion(activeVersionPath(home))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		marker := " "
		if e.Name() == active {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, e.Name())
	}
	return nil
}

func buildTarget() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}
