// Package content holds the course catalog and the lesson Markdown tooling:
// fetching, widget extraction and quizzes.
package content

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	ErrNotAvailable  = errors.New("lesson not available yet")
	ErrUnknownLesson = errors.New("unknown lesson")
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in-progress"
	StatusComingSoon Status = "coming-soon"
)

type Course struct {
	ID          string   `json:"id"`
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Difficulty  string   `json:"difficulty"`
	Objectives  []string `json:"objectives"`
	Exercises   int      `json:"exercises"`
	Status      Status   `json:"status"`
	FileURL     string   `json:"fileUrl"`
}

// Available reports whether the lesson text can be fetched.
func (c Course) Available() bool {
	return c.Status != StatusComingSoon && c.FileURL != ""
}

type Module struct {
	ID          string
	Name        string
	Description string
	Courses     []Course
}

var Module1 = Module{
	ID:          "module-1",
	Name:        "Module 1: Getting started with machine learning",
	Description: "The foundations of machine learning, from first principles",
	Courses: []Course{
		{
			ID: "lesson-01", Number: 1,
			Title:       "What is machine learning",
			Description: "The core idea of learning from data, how it differs from traditional programming, and how AI, ML and DL relate.",
			Duration:    "30-40 min", Difficulty: "beginner",
			Objectives: []string{
				"Understand the basic concepts of machine learning",
				"Recognise real-world applications",
				"Tell artificial intelligence, machine learning and deep learning apart",
				"Contrast machine learning with traditional programming",
			},
			Exercises: 7, Status: StatusCompleted,
			FileURL: "/content/courses/module-1/lesson-01-what-is-machine-learning.md",
		},
		{
			ID: "lesson-02", Number: 2,
			Title:       "Types of machine learning",
			Description: "Supervised, unsupervised and reinforcement learning; classification versus regression.",
			Duration:    "40-50 min", Difficulty: "elementary",
			Objectives: []string{
				"Distinguish supervised, unsupervised and reinforcement learning",
				"Know the traits of classification and regression problems",
				"Name typical algorithms of each family",
				"Decide which kind of learning a problem needs",
			},
			Exercises: 15, Status: StatusCompleted,
			FileURL: "/content/courses/module-1/lesson-02-types-of-machine-learning.md",
		},
		{
			ID: "lesson-03", Number: 3,
			Title:       "The machine learning workflow",
			Description: "From problem definition to deployment: collection, preprocessing, training, evaluation.",
			Duration:    "45-50 min", Difficulty: "elementary",
			Objectives: []string{
				"Walk through a complete project",
				"See the role of data at every stage",
				"Apply basic preprocessing",
				"Know what matters when evaluating and deploying",
			},
			Exercises: 5, Status: StatusCompleted,
			FileURL: "/content/courses/module-1/lesson-03-machine-learning-workflow.md",
		},
		{
			ID: "lesson-04", Number: 4,
			Title:       "Training, validation and test sets",
			Description: "Why data is split three ways, and the usual methods and ratios.",
			Duration:    "40-45 min", Difficulty: "elementary",
			Objectives: []string{
				"Explain why datasets are split",
				"Choose split methods and ratios",
				"Understand cross-validation",
				"Avoid data leakage",
			},
			Exercises: 6, Status: StatusCompleted,
			FileURL: "/content/courses/module-1/lesson-04-train-validation-test.md",
		},
		comingSoon(5, "Overfitting and underfitting", "45 min", "intermediate",
			"Recognise and fix overfitting and underfitting, regularisation, the bias-variance trade-off."),
		comingSoon(6, "Classification metrics", "50 min", "intermediate",
			"Accuracy, precision, recall, F1, the confusion matrix and ROC curves."),
		comingSoon(7, "Regression metrics", "40 min", "elementary",
			"MAE, MSE, RMSE and R², and when each applies."),
		comingSoon(8, "Cross-validation", "45 min", "intermediate",
			"K-fold, stratified K-fold and leave-one-out."),
		comingSoon(9, "Setting up Python", "50 min", "beginner",
			"Anaconda, Jupyter Notebook and the common libraries."),
		comingSoon(10, "NumPy and Pandas", "60 min", "elementary",
			"Array operations, DataFrames, reading and saving data."),
	},
}

func comingSoon(n int, title, duration, difficulty, desc string) Course {
	return Course{
		ID:          lessonID(n),
		Number:      n,
		Title:       title,
		Description: desc,
		Duration:    duration,
		Difficulty:  difficulty,
		Status:      StatusComingSoon,
	}
}

func lessonID(n int) string {
	return fmt.Sprintf("lesson-%02d", n)
}

// Catalog returns the lessons in order.
func Catalog() []Course {
	return append([]Course(nil), Module1.Courses...)
}

func Find(id string) (Course, error) {
	c, ok := lo.Find(Module1.Courses, func(c Course) bool { return c.ID == id })
	if !ok {
		return Course{}, errors.Wrapf(ErrUnknownLesson, "%q", id)
	}
	return c, nil
}

// Completed counts the lessons that are ready to read.
func Completed() int {
	return lo.CountBy(Module1.Courses, func(c Course) bool { return c.Status == StatusCompleted })
}
