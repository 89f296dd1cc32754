package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/calledstrike/szas/pkg/client"
)

var (
	importSeason int
	importFile   string
)

// NewImportCmd creates the import command and its subcommands.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Manage season snapshot imports",
	}

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Ask the server to import a stored season snapshot",
		Long:  "Publishes an import request for the named season. The import runs\nasynchronously on the worker; watch the server logs or re-run\n'catalog summary' to see the archive grow.",
		RunE:  runImportRequest,
	}
	requestCmd.Flags().IntVar(&importSeason, "season", 0, "season to import (required)")
	requestCmd.MarkFlagRequired("season")

	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List the stored season snapshots",
		RunE:  runImportSnapshots,
	}

	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a CSV season snapshot to the server",
		RunE:  runImportUpload,
	}
	uploadCmd.Flags().IntVar(&importSeason, "season", 0, "season the snapshot belongs to (required)")
	uploadCmd.Flags().StringVar(&importFile, "file", "", "path to the snapshot CSV (required)")
	uploadCmd.MarkFlagRequired("season")
	uploadCmd.MarkFlagRequired("file")

	cmd.AddCommand(requestCmd, snapshotsCmd, uploadCmd)
	return cmd
}

func runImportUpload(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(importFile)
	if err != nil {
		return fmt.Errorf("read snapshot file: %w", err)
	}
	info, err := cliCtx.Client.UploadSnapshot(cmd.Context(), importSeason, data)
	if err != nil {
		return err
	}
	return PrintResult(cmd, fmt.Sprintf("uploaded snapshot %s for season %d (%d bytes)", info.Key, info.Season, info.Size))
}

func runImportRequest(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	eventID, err := cliCtx.Client.RequestImport(cmd.Context(), importSeason)
	if err != nil {
		return err
	}
	return PrintResult(cmd, fmt.Sprintf("import requested for season %d (event %s)", importSeason, eventID))
}

func runImportSnapshots(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	snapshots, err := cliCtx.Client.Snapshots(cmd.Context())
	if err != nil {
		return err
	}
	return PrintResult(cmd, snapshotList(snapshots))
}

type snapshotList []client.SnapshotInfo

func (l snapshotList) TableHeaders() []string {
	return []string{"SEASON", "KEY", "SIZE", "UPLOADED"}
}

func (l snapshotList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{
			strconv.Itoa(s.Season),
			s.Key,
			strconv.FormatInt(s.Size, 10),
			s.UploadedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func (l snapshotList) String() string {
	return FormatTable(l.TableHeaders(), l.TableRows())
}
