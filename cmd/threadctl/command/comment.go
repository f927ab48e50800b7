package command

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/tree"
)

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", kind, err)
	}
	return id, nil
}

var treeCmd = &cobra.Command{
	Use:   "tree [subject-id]",
	Short: "Print a subject's comment tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := parseID("subject", args[0])
		if err != nil {
			return err
		}

		nodes, err := apiClient().Tree(cmd.Context(), subjectID)
		if err != nil {
			return fmt.Errorf("failed to load comments: %w", err)
		}
		if len(nodes) == 0 {
			fmt.Println("No comments yet")
			return nil
		}

		out := cmd.OutOrStdout()
		tree.Walk(nodes, func(n *tree.Node, depth int) bool {
			marker := " "
			if n.LikedByViewer {
				marker = "♥"
			}
			edited := ""
			if n.Edited() {
				edited = " (edited)"
			}
			fmt.Fprintf(out, "%s%s [%s] %s%s  ♥%d\n", strings.Repeat("  ", depth), marker, n.ID, firstLine(n.Content), edited, n.LikeCount)
			return true
		})
		fmt.Fprintf(out, "%d comments\n", tree.Count(nodes))
		return nil
	},
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

var postCmd = &cobra.Command{
	Use:   "post [subject-id] [content]",
	Short: "Post a top-level comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := parseID("subject", args[0])
		if err != nil {
			return err
		}

		node, err := apiClient().Post(cmd.Context(), subjectID, domain.CreateCommentInput{Content: strings.Join(args[1:], " ")})
		if err != nil {
			return fmt.Errorf("failed to post comment: %w", err)
		}
		fmt.Printf("✓ Comment %s posted\n", node.ID)
		return nil
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply [subject-id] [parent-id] [content]",
	Short: "Reply to a comment",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		subjectID, err := parseID("subject", args[0])
		if err != nil {
			return err
		}
		parentID, err := parseID("parent", args[1])
		if err != nil {
			return err
		}

		node, err := apiClient().Post(cmd.Context(), subjectID, domain.CreateCommentInput{
			Content:  strings.Join(args[2:], " "),
			ParentID: &parentID,
		})
		if err != nil {
			return fmt.Errorf("failed to post reply: %w", err)
		}
		fmt.Printf("✓ Reply %s posted under %s\n", node.ID, parentID)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [comment-id] [content]",
	Short: "Edit your comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		commentID, err := parseID("comment", args[0])
		if err != nil {
			return err
		}

		result, err := apiClient().Edit(cmd.Context(), commentID, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to edit comment: %w", err)
		}
		fmt.Println("✓ Comment updated")
		fmt.Printf("Updated at: %s\n", result.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [comment-id]",
	Short: "Delete your comment and every reply under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commentID, err := parseID("comment", args[0])
		if err != nil {
			return err
		}

		result, err := apiClient().Delete(cmd.Context(), commentID)
		if err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		fmt.Printf("✓ Removed %d comments\n", len(result.RemovedIDs))
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like [comment-id]",
	Short: "Like or unlike a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commentID, err := parseID("comment", args[0])
		if err != nil {
			return err
		}

		result, err := apiClient().ToggleLike(cmd.Context(), commentID)
		if err != nil {
			return fmt.Errorf("failed to toggle like: %w", err)
		}
		verb := "Unliked"
		if result.Liked {
			verb = "Liked"
		}
		fmt.Printf("✓ %s (%d likes)\n", verb, result.LikeCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd, postCmd, replyCmd, editCmd, deleteCmd, likeCmd)
}
