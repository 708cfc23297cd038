package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/lms/internal/wire"
)

// CourseCmd returns the course command
func CourseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Manage courses",
	}
	cmd.AddCommand(courseCreateCmd())
	cmd.AddCommand(courseListCmd())
	cmd.AddCommand(courseShowCmd())
	cmd.AddCommand(courseUpdateCmd())
	cmd.AddCommand(courseDeleteCmd())
	return cmd
}

var courseFlags = map[string]string{
	"title":       "title",
	"description": "description",
	"instructor":  "instructorId",
	"level":       "level",
	"category":    "category",
}

func addCourseFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Course title")
	cmd.Flags().String("description", "", "Course description")
	cmd.Flags().String("instructor", "", "Instructor user ID")
	cmd.Flags().String("level", "", "Level (beginner, intermediate, advanced)")
	cmd.Flags().String("category", "", "Category")
	addFieldFlags(cmd)
}

func courseCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a course",
		Long: `Create a course. Legacy field names and value spellings are accepted.

Examples:
  lms course create --title "Intro Go" --description "Basics" -f price=49.9
  lms course create -f titre="Intro Go" -f niveau=débutant -f prix="49,90"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, courseFlags)
			if err != nil {
				return err
			}
			return wire.CatalogAdapter().CreateCourse(commandContext(cmd), rec)
		},
	}
	addCourseFlags(cmd)
	return cmd
}

func courseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().ListCourses(commandContext(cmd))
		},
	}
}

func courseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Show a course and its modules in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().ShowCourse(commandContext(cmd), args[0])
		},
	}
}

func courseUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <course-id>",
		Short: "Update fields of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, courseFlags)
			if err != nil {
				return err
			}
			return wire.CatalogAdapter().UpdateCourse(commandContext(cmd), args[0], rec)
		},
	}
	addCourseFlags(cmd)
	return cmd
}

func courseDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <course-id>",
		Short: "Delete a course (its modules are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().DeleteCourse(commandContext(cmd), args[0])
		},
	}
}

// ModuleCmd returns the module command
func ModuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Manage course modules",
	}
	cmd.AddCommand(moduleCreateCmd())
	cmd.AddCommand(moduleUpdateCmd())
	cmd.AddCommand(moduleDeleteCmd())
	return cmd
}

var moduleFlags = map[string]string{
	"course":      "courseId",
	"title":       "title",
	"description": "description",
}

func addModuleFlags(cmd *cobra.Command) {
	cmd.Flags().String("course", "", "Course ID")
	cmd.Flags().String("title", "", "Module title")
	cmd.Flags().String("description", "", "Module description")
	addFieldFlags(cmd)
}

func moduleCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a module and register it on its course",
		Long: `Create a module and register it on its course. Without -f order=N the
module takes the next free position.

Examples:
  lms module create --course c1 --title "Installation"
  lms module create --course c1 --title "Channels" -f order=3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, moduleFlags)
			if err != nil {
				return err
			}
			return wire.CatalogAdapter().CreateModule(commandContext(cmd), rec)
		},
	}
	addModuleFlags(cmd)
	return cmd
}

func moduleUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <module-id>",
		Short: "Update fields of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, moduleFlags)
			if err != nil {
				return err
			}
			return wire.CatalogAdapter().UpdateModule(commandContext(cmd), args[0], rec)
		},
	}
	addModuleFlags(cmd)
	return cmd
}

func moduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <module-id>",
		Short: "Delete a module and unregister it from its course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().DeleteModule(commandContext(cmd), args[0])
		},
	}
}

// EvaluationCmd returns the evaluation command
func EvaluationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluation",
		Aliases: []string{"eval"},
		Short:   "Manage module evaluations",
	}
	cmd.AddCommand(evaluationCreateCmd())
	cmd.AddCommand(evaluationListCmd())
	cmd.AddCommand(evaluationDeleteCmd())
	return cmd
}

func evaluationCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an evaluation under a module",
		Long: `Create an evaluation under a module.

Examples:
  lms evaluation create --module m1 --title "Quiz" --type quiz -f maxScore=20 -f passingScore=10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd, map[string]string{
				"module": "moduleId",
				"title":  "title",
				"type":   "type",
			})
			if err != nil {
				return err
			}
			return wire.CatalogAdapter().CreateEvaluation(commandContext(cmd), rec)
		},
	}
	cmd.Flags().String("module", "", "Module ID")
	cmd.Flags().String("title", "", "Evaluation title")
	cmd.Flags().String("type", "", "Type (quiz, assignment)")
	addFieldFlags(cmd)
	return cmd
}

func evaluationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <module-id>",
		Short: "List the evaluations of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().ListEvaluations(commandContext(cmd), args[0])
		},
	}
}

func evaluationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <module-id> <evaluation-id>",
		Short: "Delete an evaluation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.CatalogAdapter().DeleteEvaluation(commandContext(cmd), args[0], args[1])
		},
	}
}
