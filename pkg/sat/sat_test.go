package sat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSatisfiable(t *testing.T) {
	// Arrange
	m := NewModel()
	x := m.NewBool()
	y := m.NewBool()
	m.AddClause(x, y)
	m.AddClause(-x, y)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, solution.Status)
	assert.True(t, solution.Values[y-1])
}

func TestSolveInfeasible(t *testing.T) {
	// Arrange
	m := NewModel()
	x := m.NewBool()
	m.AddClause(x)
	m.AddClause(-x)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, solution.Status)
	assert.Nil(t, solution.Values)
}

func TestExactlyOne(t *testing.T) {
	// Arrange
	m := NewModel()
	first := m.NewBools(5)
	lits := make([]int, 5)
	for i := range lits {
		lits[i] = first + i
	}
	m.AddExactlyOne(lits)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	count := 0
	for _, lit := range lits {
		if solution.Values[lit-1] {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMinimizeFindsOptimum(t *testing.T) {
	// Arrange: cover {a,b} with x (covers both, cost 3) or y+z (cost 2 each)
	m := NewModel()
	x := m.NewBool()
	y := m.NewBool()
	z := m.NewBool()
	m.AddClause(x, y)
	m.AddClause(x, z)
	m.Minimize([]Term{{Lit: x, Weight: 3}, {Lit: y, Weight: 2}, {Lit: z, Weight: 2}})

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, solution.Status)
	assert.Equal(t, 3, solution.Objective)
	assert.True(t, solution.Values[x-1])
}

func TestGuardedBounds(t *testing.T) {
	t.Run("at-least enforced when guard holds", func(t *testing.T) {
		// Arrange
		m := NewModel()
		guard := m.NewBool()
		first := m.NewBools(3)
		lits := []int{first, first + 1, first + 2}
		m.AddClause(guard)
		m.AddAtLeastIf(guard, lits, nil, 2)

		// Act
		solution, err := NewGophersatSolver().Solve(m, Options{})

		// Assert
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, solution.Status)
		count := 0
		for _, lit := range lits {
			if solution.Values[lit-1] {
				count++
			}
		}
		assert.GreaterOrEqual(t, count, 2)
	})

	t.Run("at-least vacuous when guard is off", func(t *testing.T) {
		// Arrange
		m := NewModel()
		guard := m.NewBool()
		first := m.NewBools(3)
		lits := []int{first, first + 1, first + 2}
		m.AddClause(-guard)
		for _, lit := range lits {
			m.AddClause(-lit)
		}
		m.AddAtLeastIf(guard, lits, nil, 2)

		// Act
		solution, err := NewGophersatSolver().Solve(m, Options{})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, StatusOptimal, solution.Status)
	})
}

func TestActivationReification(t *testing.T) {
	// Arrange: all member literals forced off, activation must follow
	m := NewModel()
	active := m.NewBool()
	first := m.NewBools(3)
	lits := []int{first, first + 1, first + 2}
	m.AddActivation(active, lits)
	for _, lit := range lits {
		m.AddClause(-lit)
	}

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	assert.False(t, solution.Values[active-1])
}

func TestBoolAndLinearization(t *testing.T) {
	// Arrange
	m := NewModel()
	target := m.NewBool()
	a := m.NewBool()
	b := m.NewBool()
	m.AddBoolAnd(target, a, b)
	m.AddClause(a)
	m.AddClause(b)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	assert.True(t, solution.Values[target-1])
}

func TestFeasibleHintSeedsIncumbent(t *testing.T) {
	// Arrange
	m := NewModel()
	x := m.NewBool()
	y := m.NewBool()
	m.AddClause(x, y)
	m.Minimize([]Term{{Lit: x, Weight: 1}, {Lit: y, Weight: 1}})
	m.SetHint(x, true)
	m.SetHint(y, false)

	var improvements []int
	opts := Options{OnProgress: func(p Progress) {
		improvements = append(improvements, p.Objective)
	}}

	// Act
	solution, err := NewGophersatSolver().Solve(m, opts)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, solution.Status)
	assert.Equal(t, 1, solution.Objective)
	require.NotEmpty(t, improvements)
	assert.Equal(t, 1, improvements[0])
}

func TestInfeasibleHintIsDropped(t *testing.T) {
	// Arrange: hint violates the clause, solve must still succeed
	m := NewModel()
	x := m.NewBool()
	y := m.NewBool()
	m.AddClause(x)
	m.AddClause(y)
	m.SetHint(x, false)
	m.SetHint(y, false)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, solution.Status)
	assert.True(t, solution.Values[x-1])
	assert.True(t, solution.Values[y-1])
}

func TestRelativeGapStopsEarly(t *testing.T) {
	// Arrange: optimum is 10 out of 10 unit terms; a 100% gap accepts the
	// first incumbent without proving optimality
	m := NewModel()
	first := m.NewBools(10)
	terms := make([]Term, 10)
	for i := 0; i < 10; i++ {
		m.AddClause(first + i)
		terms[i] = Term{Lit: first + i, Weight: 1}
	}
	m.Minimize(terms)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{RelativeGap: 1.0})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusFeasible, solution.Status)
	assert.Equal(t, 10, solution.Objective)
}

func TestBudgetExpiredBeforeStart(t *testing.T) {
	// Arrange
	m := NewModel()
	x := m.NewBool()
	m.AddClause(x)
	m.Minimize([]Term{{Lit: x, Weight: 1}})

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{Budget: -time.Second})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, solution.Status)
}

func TestWeightedAtMost(t *testing.T) {
	// Arrange: weights 3+4 may not exceed 5, but at least one must hold
	m := NewModel()
	x := m.NewBool()
	y := m.NewBool()
	m.AddClause(x, y)
	m.AddAtMost([]int{x, y}, []int{3, 4}, 5)

	// Act
	solution, err := NewGophersatSolver().Solve(m, Options{})

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, solution.Status)
	assert.False(t, solution.Values[x-1] && solution.Values[y-1])
	assert.True(t, solution.Values[x-1] || solution.Values[y-1])
}
