package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shellmind/internal/store"
	"shellmind/internal/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(50)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No saved sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUPDATED\tMESSAGES\tTITLE")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), s.MessageCount, s.Title)
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		messages, err := st.LoadMessages(args[0])
		if err != nil {
			return err
		}
		for _, msg := range messages {
			printMessage(msg)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteSession(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Session.DatabasePath)
}

func printMessage(msg types.Message) {
	switch msg.Role {
	case types.RoleUser:
		fmt.Printf("you: %s\n", msg.Text)
	case types.RoleAssistant:
		if msg.Text != "" {
			fmt.Printf("shellmind: %s\n", msg.Text)
		}
		for _, call := range msg.ToolCalls {
			fmt.Printf("  [tool call] %s\n", call.Name)
		}
	case types.RoleTool:
		marker := "ok"
		if msg.IsError {
			marker = "error"
		}
		fmt.Printf("  [%s %s] %s\n", msg.ToolName, marker, firstLineOf(msg.Text))
	}
}

func firstLineOf(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
		if i > 120 {
			return s[:i] + " ..."
		}
	}
	return s
}
