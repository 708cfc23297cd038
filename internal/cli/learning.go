package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/lms/internal/ports/primary"
	"github.com/example/lms/internal/wire"
)

// EnrollmentCmd returns the enrollment command
func EnrollmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "enrollment",
		Aliases: []string{"enroll"},
		Short:   "Manage enrollments",
	}
	cmd.AddCommand(enrollmentAddCmd())
	cmd.AddCommand(enrollmentStatusCmd())
	cmd.AddCommand(enrollmentRemoveCmd())
	cmd.AddCommand(enrollmentListCmd())
	cmd.AddCommand(enrollmentRosterCmd())
	return cmd
}

func enrollmentAddCmd() *cobra.Command {
	var user, status string

	cmd := &cobra.Command{
		Use:   "add <course-id>",
		Short: "Enroll a user in a course",
		Long: `Enroll a user in a course. Without --user the acting identity (--as or the
configured actor) is enrolled. Enrolling twice is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().Enroll(commandContext(cmd), user, args[0], status)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID (defaults to the acting identity)")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (active, paused, completed)")
	return cmd
}

func enrollmentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <user-id> <course-id> <status>",
		Short: "Change the status of an enrollment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().SetStatus(commandContext(cmd), args[0], args[1], args[2])
		},
	}
}

func enrollmentRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id> <course-id>",
		Short: "Remove an enrollment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().Unenroll(commandContext(cmd), args[0], args[1])
		},
	}
}

func enrollmentListCmd() *cobra.Command {
	var user, course string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the enrollments of a user or of a course",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (user == "") == (course == "") {
				return fmt.Errorf("exactly one of --user or --course is required")
			}
			return wire.LearningAdapter().ListEnrollments(commandContext(cmd), user, course)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID")
	cmd.Flags().StringVarP(&course, "course", "c", "", "Course ID")
	return cmd
}

func enrollmentRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster <course-id>",
		Short: "Show the enrolled users of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().Roster(commandContext(cmd), args[0])
		},
	}
}

// ProgressCmd returns the progress command
func ProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Record and inspect course progress",
	}
	cmd.AddCommand(progressRecordCmd())
	cmd.AddCommand(progressShowCmd())
	return cmd
}

func progressRecordCmd() *cobra.Command {
	var (
		user      string
		completed bool
		score     float64
	)

	cmd := &cobra.Command{
		Use:   "record <course-id> <module-id>",
		Short: "Record progress on one module and recalculate the course",
		Long: `Record progress on one module, then recalculate the completion percentage,
completed flag and average score of the course.

Examples:
  lms progress record c1 m1 --user e1 --completed --score 80`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().RecordModule(commandContext(cmd), primary.ModuleProgressRequest{
				UserID:    user,
				CourseID:  args[0],
				ModuleID:  args[1],
				Completed: completed,
				Score:     score,
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID")
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark the module completed")
	cmd.Flags().Float64Var(&score, "score", 0, "Module score")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func progressShowCmd() *cobra.Command {
	var (
		course      string
		recalculate bool
	)

	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show the progress of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if recalculate && course == "" {
				return fmt.Errorf("--recalculate needs --course")
			}
			return wire.LearningAdapter().ShowProgress(commandContext(cmd), args[0], course, recalculate)
		},
	}
	cmd.Flags().StringVarP(&course, "course", "c", "", "Only this course")
	cmd.Flags().BoolVar(&recalculate, "recalculate", false, "Recompute the derived fields first")
	return cmd
}

// FeedbackCmd returns the feedback command
func FeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit and list course feedback",
	}
	cmd.AddCommand(feedbackSubmitCmd())
	cmd.AddCommand(feedbackListCmd())
	return cmd
}

func feedbackSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Rate a course and refresh its average rating",
		Long: `Rate a course from 1 to 5 and refresh its average rating. Without --user the
acting identity is recorded.

Examples:
  lms feedback submit --course c1 -f rating=5 --comment "Très clair"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, map[string]string{
				"course":  "courseId",
				"user":    "userId",
				"comment": "comment",
			})
			if err != nil {
				return err
			}
			return wire.LearningAdapter().SubmitFeedback(commandContext(cmd), rec)
		},
	}
	cmd.Flags().String("course", "", "Course ID")
	cmd.Flags().String("user", "", "User ID (defaults to the acting identity)")
	cmd.Flags().String("comment", "", "Comment")
	addFieldFlags(cmd)
	return cmd
}

func feedbackListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <course-id>",
		Short: "List the feedback of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.LearningAdapter().ListFeedback(commandContext(cmd), args[0])
		},
	}
}
