package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taskman/internal/core/domain"
)

// dueDateLayout is the date-only form accepted for --due.
const dueDateLayout = "2006-01-02"

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Long: `Add a task. Before saving, existing tasks with similar text are listed
as possible duplicates. Use --no-check to skip the check.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskComplete,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags in use",
	Args:  cobra.NoArgs,
	RunE:  runTaskTags,
}

var (
	taskDescription string
	taskTags        string
	taskPriority    string
	taskStatus      string
	taskDue         string
	taskTitle       string
	taskNoCheck     bool

	listStatus   string
	listPriority string
	listTag      string
	listLimit    int
	listOffset   int
	listOverdue  bool

	taskJSON bool
)

func init() {
	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "task description")
	taskAddCmd.Flags().StringVarP(&taskTags, "tags", "t", "", "comma separated tags")
	taskAddCmd.Flags().StringVarP(&taskPriority, "priority", "p", "", "low, medium, high or urgent")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD)")
	taskAddCmd.Flags().BoolVar(&taskNoCheck, "no-check", false, "skip the duplicate check")

	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "new description")
	taskUpdateCmd.Flags().StringVarP(&taskTags, "tags", "t", "", "new comma separated tags")
	taskUpdateCmd.Flags().StringVarP(&taskPriority, "priority", "p", "", "new priority")
	taskUpdateCmd.Flags().StringVarP(&taskStatus, "status", "s", "", "new status")
	taskUpdateCmd.Flags().StringVar(&taskDue, "due", "", "new due date (YYYY-MM-DD)")

	taskListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status")
	taskListCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "filter by priority")
	taskListCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	taskListCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of tasks (0 = all)")
	taskListCmd.Flags().IntVar(&listOffset, "offset", 0, "skip this many tasks")
	taskListCmd.Flags().BoolVar(&listOverdue, "overdue", false, "only open tasks due before today (other filters ignored)")

	for _, c := range []*cobra.Command{taskListCmd, taskShowCmd, taskAddCmd} {
		c.Flags().BoolVar(&taskJSON, "json", false, "output as JSON")
	}

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd,
		taskCompleteCmd, taskDeleteCmd, taskTagsCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}

	task := domain.Task{
		Title:       args[0],
		Description: taskDescription,
		Tags:        taskTags,
		Priority:    domain.Priority(taskPriority),
	}
	if taskDue != "" {
		due, err := parseDueDate(taskDue)
		if err != nil {
			return err
		}
		task.DueDate = &due
	}

	var duplicates []domain.TaskMatch
	if !taskNoCheck && memoryService != nil {
		duplicates = memoryService.FindSimilar(cmd.Context(), task.SearchableText(), domain.SemanticSearchOptions{})
	}

	created, err := taskService.Create(cmd.Context(), task)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}

	if taskJSON {
		return printJSON(cmd, created)
	}

	out := cmd.OutOrStdout()
	cmd.Println(styled(out, successStyle, fmt.Sprintf("Added task #%d", created.ID)) + ": " + created.Title)
	if len(duplicates) > 0 {
		cmd.Println()
		cmd.Println(styled(out, warningStyle, "Possible duplicates:"))
		printMatches(cmd, duplicates)
	}
	return nil
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}

	var tasks []domain.Task
	var err error
	if listOverdue {
		tasks, err = taskService.Overdue(cmd.Context())
		if err == nil && listLimit > 0 && len(tasks) > listLimit {
			tasks = tasks[:listLimit]
		}
	} else {
		tasks, err = taskService.List(cmd.Context(), domain.TaskFilter{
			Status:   domain.TaskStatus(listStatus),
			Priority: domain.Priority(listPriority),
			Tag:      listTag,
			Limit:    listLimit,
			Offset:   listOffset,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if taskJSON {
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return printJSON(cmd, tasks)
	}

	if len(tasks) == 0 {
		cmd.Println("No tasks found.")
		return nil
	}
	for i := range tasks {
		printTaskLine(cmd, &tasks[i])
	}
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	task, err := taskService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("task %d: %w", id, err)
	}

	if taskJSON {
		return printJSON(cmd, task)
	}

	out := cmd.OutOrStdout()
	cmd.Println(styled(out, titleStyle, fmt.Sprintf("#%d %s", task.ID, task.Title)))
	cmd.Printf("  Status:   %s\n", task.Status)
	cmd.Printf("  Priority: %s\n", styled(out, priorityStyle(task.Priority), task.Priority.String()))
	if task.Tags != "" {
		cmd.Printf("  Tags:     %s\n", task.Tags)
	}
	if task.DueDate != nil {
		cmd.Printf("  Due:      %s\n", task.DueDate.Format(dueDateLayout))
	}
	cmd.Printf("  Created:  %s\n", task.CreatedAt.Local().Format(time.DateTime))
	cmd.Printf("  Updated:  %s\n", task.UpdatedAt.Local().Format(time.DateTime))
	if task.Description != "" {
		cmd.Println()
		cmd.Println(task.Description)
	}
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var update domain.TaskUpdate
	if flags.Changed("title") {
		update.Title = &taskTitle
	}
	if flags.Changed("description") {
		update.Description = &taskDescription
	}
	if flags.Changed("tags") {
		update.Tags = &taskTags
	}
	if flags.Changed("priority") {
		priority := domain.Priority(taskPriority)
		update.Priority = &priority
	}
	if flags.Changed("status") {
		status := domain.TaskStatus(taskStatus)
		update.Status = &status
	}
	if flags.Changed("due") {
		due, err := parseDueDate(taskDue)
		if err != nil {
			return err
		}
		update.DueDate = &due
	}
	if update.IsEmpty() {
		return fmt.Errorf("%w: nothing to update; pass at least one of --title, --description, --tags, --priority, --status, --due",
			domain.ErrInvalidInput)
	}

	task, err := taskService.Update(cmd.Context(), id, update)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", id, err)
	}
	cmd.Println(styled(cmd.OutOrStdout(), successStyle, fmt.Sprintf("Updated task #%d", task.ID)) + ": " + task.Title)
	return nil
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	task, err := taskService.Complete(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to complete task %d: %w", id, err)
	}
	cmd.Println(styled(cmd.OutOrStdout(), successStyle, fmt.Sprintf("Completed task #%d", task.ID)) + ": " + task.Title)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	if err := taskService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	cmd.Printf("Deleted task #%d\n", id)
	return nil
}

func runTaskTags(cmd *cobra.Command, _ []string) error {
	if taskService == nil {
		return errTaskServiceMissing
	}

	tags, err := taskService.Tags(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if len(tags) == 0 {
		cmd.Println("No tags in use.")
		return nil
	}
	cmd.Println(strings.Join(tags, "\n"))
	return nil
}

// printTaskLine prints a one-line summary: [ ] #3 Title  (high) tags
func printTaskLine(cmd *cobra.Command, t *domain.Task) {
	out := cmd.OutOrStdout()
	box := "[ ]"
	switch t.Status {
	case domain.TaskStatusCompleted:
		box = "[x]"
	case domain.TaskStatusInProgress:
		box = "[~]"
	case domain.TaskStatusArchived:
		box = "[-]"
	}

	line := fmt.Sprintf("%s #%d %s", box, t.ID, t.Title)
	if t.Priority != domain.PriorityMedium {
		line += "  " + styled(out, priorityStyle(t.Priority), "("+t.Priority.String()+")")
	}
	if t.Tags != "" {
		line += "  " + styled(out, mutedStyle, t.Tags)
	}
	if t.DueDate != nil {
		due := "due " + t.DueDate.Format(dueDateLayout)
		if t.IsOverdue(time.Now()) {
			line += "  " + styled(out, errorStyle, due+" (overdue)")
		} else {
			line += "  " + styled(out, mutedStyle, due)
		}
	}
	cmd.Println(line)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a task id", domain.ErrInvalidInput, arg)
	}
	return id, nil
}

// parseDueDate accepts a date or a full RFC 3339 timestamp.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: due date %q must be YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}
