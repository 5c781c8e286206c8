package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/apiclient"
	"github.com/Joseda-hg/tasktracker/internal/forms"
	"github.com/Joseda-hg/tasktracker/internal/gate"
	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/model"
	"github.com/Joseda-hg/tasktracker/internal/views"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewMain    = "main"
	viewSearch  = "search"
	viewForm    = "form"
	viewConfirm = "confirm"
	viewHelp    = "help"
)

type screen int

const (
	screenLogin screen = iota
	screenDashboard
	screenEmployees
	screenTasks
)

var screenPaths = map[screen]string{
	screenLogin:     gate.LoginPath,
	screenDashboard: "/",
	screenEmployees: "/employees",
	screenTasks:     "/tasks",
}

// LogoutNotifier reports every transition to signed out, whoever caused it.
type LogoutNotifier interface {
	OnLogout(fn func()) func()
}

type Deps struct {
	Clients  *apiclient.Clients
	Sessions LogoutNotifier
	Gate     *gate.Gate
	Logger   *slog.Logger
}

type UI struct {
	ctx      context.Context
	clients  *apiclient.Clients
	sessions LogoutNotifier
	gate     *gate.Gate
	logger   *slog.Logger
	gui      *gocui.Gui
	now      func() time.Time

	screen    screen
	stats     views.Stats
	employees []model.Employee
	tasks     []model.Task
	selected  int
	query     string
	loading   bool
	guard     views.RequestGuard

	form         *formState
	formEditor   *formEditor
	confirm      *confirmState
	searchActive bool
	helpActive   bool
	status       string
}

type confirmState struct {
	prompt string
	action func()
}

func newUI(ctx context.Context, deps Deps) *UI {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ui := &UI{
		ctx:      ctx,
		clients:  deps.Clients,
		sessions: deps.Sessions,
		gate:     deps.Gate,
		logger:   logger,
		now:      time.Now,
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(ctx context.Context, deps Deps) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(ctx, deps)
	ui.gui = gui
	unsubscribe := ui.watchSession()
	defer unsubscribe()

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.navigate(screenDashboard)

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// watchSession sends the UI back to login whenever the credential is cleared.
func (u *UI) watchSession() func() {
	return u.sessions.OnLogout(func() {
		u.onUI(u.showLogin)
	})
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	type binding struct {
		view    string
		key     any
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quitKey},
		{"", '1', u.showDashboard},
		{"", '2', u.showEmployees},
		{"", '3', u.showTasks},
		{"", 'r', u.reload},
		{"", 'a', u.addItem},
		{"", 'e', u.editSelected},
		{"", 'd', u.deleteSelected},
		{"", '/', u.startSearch},
		{"", 'L', u.logout},
		{"", '?', u.toggleHelp},
		{viewMain, gocui.KeyArrowDown, u.moveDown},
		{viewMain, 'j', u.moveDown},
		{viewMain, gocui.KeyArrowUp, u.moveUp},
		{viewMain, 'k', u.moveUp},
		{viewMain, gocui.KeyEnter, u.editSelected},
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewForm, gocui.KeyEnter, u.submitForm},
		{viewForm, gocui.KeyCtrlJ, u.submitForm},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewForm, gocui.KeyCtrlR, u.toggleRegister},
		{viewConfirm, 'y', u.confirmYes},
		{viewConfirm, gocui.KeyEnter, u.confirmYes},
		{viewConfirm, 'n', u.confirmNo},
		{viewConfirm, gocui.KeyEsc, u.confirmNo},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyBottom := footerY0 - 1
	if bodyBottom < 2 {
		return nil
	}
	mainView, err := gui.SetView(viewMain, 0, 1, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	mainView.Title = u.mainTitle()
	applyViewStyle(mainView, !u.inputActive(), u.screen == screenEmployees || u.screen == screenTasks)
	u.renderMain(mainView)

	overlays := []struct {
		name   string
		active bool
		show   func(*gocui.Gui) error
	}{
		{viewSearch, u.searchActive, u.showSearch},
		{viewForm, u.form != nil, u.showForm},
		{viewConfirm, u.confirm != nil, u.showConfirm},
		{viewHelp, u.helpActive, u.showHelp},
	}
	for _, overlay := range overlays {
		if !overlay.active {
			_ = gui.DeleteView(overlay.name)
			continue
		}
		if err := overlay.show(gui); err != nil {
			return err
		}
		_, _ = gui.SetViewOnTop(overlay.name)
	}

	_, _ = gui.SetCurrentView(u.activeView())
	gui.Cursor = u.searchActive || u.form != nil
	return nil
}

// activeView is the topmost view that should receive keys.
func (u *UI) activeView() string {
	switch {
	case u.helpActive:
		return viewHelp
	case u.confirm != nil:
		return viewConfirm
	case u.form != nil:
		return viewForm
	case u.searchActive:
		return viewSearch
	default:
		return viewMain
	}
}

func (u *UI) mainTitle() string {
	switch u.screen {
	case screenDashboard:
		return "1 Dashboard"
	case screenEmployees:
		if u.query != "" {
			return fmt.Sprintf("2 Employees (search: %s)", u.query)
		}
		return "2 Employees"
	case screenTasks:
		return "3 Tasks"
	default:
		return "Task Tracker"
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	if u.screen == screenLogin {
		fmt.Fprint(view, "Task Tracker | signed out")
		return
	}
	user := "signed in"
	if cred, ok := u.clients.Auth.CurrentUser(u.ctx); ok && cred.Username != "" {
		user = "signed in as " + cred.Username
	}
	loading := ""
	if u.loading {
		loading = " | Loading..."
	}
	fmt.Fprintf(view, "Task Tracker | %s | Employees %d | Tasks %d%s", user, u.stats.Employees, u.stats.Tasks, loading)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	switch u.screen {
	case screenLogin:
		fmt.Fprintln(view, "enter submit | tab next field | ctrl-r sign in/register | ctrl-c quit")
	case screenEmployees:
		fmt.Fprintln(view, "a add | e/enter edit | d delete | / search | r reload | 1-3 screens | L logout | ? help | q quit")
	case screenTasks:
		fmt.Fprintln(view, "a add | e/enter edit | d delete | r reload | 1-3 screens | L logout | ? help | q quit")
	default:
		fmt.Fprintln(view, "r reload | 1 dashboard | 2 employees | 3 tasks | L logout | ? help | q quit")
	}
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderMain(view *gocui.View) {
	view.Clear()
	switch u.screen {
	case screenLogin:
		fmt.Fprintln(view, "Welcome to Task Tracker.")
		fmt.Fprintln(view, "")
		fmt.Fprintln(view, "Sign in to manage employees and tasks.")
		fmt.Fprint(view, "No account yet? Press ctrl-r in the form to register.")
	case screenDashboard:
		if u.loading {
			fmt.Fprint(view, "Loading...")
			return
		}
		fmt.Fprintln(view, formatStats(u.stats))
		now := u.now()
		for _, task := range u.tasks {
			if task.Overdue(now) {
				fmt.Fprintf(view, "\nOVERDUE  %s (%s)", task.Title, views.FormatDue(task))
			}
		}
	case screenEmployees:
		employees := u.visibleEmployees()
		if len(employees) == 0 && !u.loading {
			fmt.Fprint(view, "No employees found.")
		}
		lines := make([]string, 0, len(employees))
		for _, employee := range employees {
			lines = append(lines, formatEmployeeSummary(employee))
		}
		u.renderList(view, lines)
	case screenTasks:
		if len(u.tasks) == 0 && !u.loading {
			fmt.Fprint(view, "No tasks yet.")
		}
		now := u.now()
		lines := make([]string, 0, len(u.tasks))
		for _, task := range u.tasks {
			lines = append(lines, formatTaskSummary(task, u.employees, now))
		}
		u.renderList(view, lines)
	}
}

func (u *UI) renderList(view *gocui.View, lines []string) {
	for i, line := range lines {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, line)
	}
	if len(lines) > 0 && !u.inputActive() {
		view.SetCursor(0, min(u.selected, len(lines)-1))
	}
}

func (u *UI) showDashboard(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.navigate(screenDashboard)
	return nil
}

func (u *UI) showEmployees(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.navigate(screenEmployees)
	return nil
}

func (u *UI) showTasks(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.navigate(screenTasks)
	return nil
}

// navigate moves to a screen. Protected screens ask the gate first and fall
// back to the login form when no credential is stored.
func (u *UI) navigate(to screen) {
	u.status = ""
	if to == screenLogin {
		u.showLogin()
		return
	}
	if decision := u.gate.Check(u.ctx, screenPaths[to]); !decision.Allow {
		u.showLogin()
		return
	}
	u.screen = to
	u.selected = 0
	u.query = ""
	u.reloadScreen()
}

func (u *UI) showLogin() {
	u.guard.Begin()
	u.screen = screenLogin
	u.stats = views.Stats{}
	u.employees = nil
	u.tasks = nil
	u.selected = 0
	u.query = ""
	u.loading = false
	u.confirm = nil
	u.searchActive = false
	u.helpActive = false
	if u.form == nil || u.form.kind != formLogin {
		u.form = newLoginForm(false)
	}
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	u.reloadScreen()
	return nil
}

func (u *UI) reloadScreen() {
	switch u.screen {
	case screenDashboard:
		u.loadLists(views.MsgDashboardFailed)
	case screenTasks:
		u.loadLists(views.MsgTasksFailed)
	case screenEmployees:
		u.loadEmployees()
	}
}

// background runs load off the UI goroutine and applies the returned func on
// it. Without a gui everything runs inline.
func (u *UI) background(load func(ctx context.Context) func()) {
	if u.gui == nil {
		load(u.ctx)()
		return
	}
	go func() {
		apply := load(u.ctx)
		u.gui.Update(func(*gocui.Gui) error {
			apply()
			return nil
		})
	}()
}

func (u *UI) onUI(fn func()) {
	if u.gui == nil {
		fn()
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		fn()
		return nil
	})
}

func (u *UI) loadLists(failure string) {
	token := u.guard.Begin()
	u.loading = true
	u.background(func(ctx context.Context) func() {
		dash, err := views.LoadDashboard(ctx, u.clients.Employees, u.clients.Tasks, u.now())
		return func() {
			if !u.guard.Current(token) {
				return
			}
			u.loading = false
			if err != nil {
				u.fail(err, failure)
				return
			}
			u.stats = dash.Stats
			u.employees = dash.Employees
			u.tasks = dash.Tasks
			u.clampSelection()
		}
	})
}

func (u *UI) loadEmployees() {
	token := u.guard.Begin()
	u.loading = true
	u.background(func(ctx context.Context) func() {
		employees, err := u.clients.Employees.ListAll(ctx)
		return func() {
			if !u.guard.Current(token) {
				return
			}
			u.loading = false
			if err != nil {
				u.fail(err, views.MsgEmployeesFailed)
				return
			}
			u.employees = employees
			u.stats.Employees = len(employees)
			u.clampSelection()
		}
	})
}

// fail reports a failed request. A rejected token signs the user out; the
// logout listener then shows the login form.
func (u *UI) fail(err error, message string) {
	u.log("request").Error(message, "error", err, "kind", apiclient.ErrorKind(err))
	if views.SessionLost(err) {
		u.status = views.MsgSessionExpired
		if logoutErr := u.clients.Auth.Logout(u.ctx); logoutErr != nil {
			u.log("logout").Error("clear session", "error", logoutErr)
		}
		return
	}
	u.status = message
}

func (u *UI) log(operation string) *slog.Logger {
	return logging.Component(u.ctx, u.logger, "tui", operation, "screen", screenPaths[u.screen])
}

func (u *UI) visibleEmployees() []model.Employee {
	return views.SearchEmployees(u.employees, u.query)
}

func (u *UI) listLen() int {
	switch u.screen {
	case screenEmployees:
		return len(u.visibleEmployees())
	case screenTasks:
		return len(u.tasks)
	default:
		return 0
	}
}

func (u *UI) clampSelection() {
	u.selected = max(min(u.selected, u.listLen()-1), 0)
}

func (u *UI) selectedEmployee() *model.Employee {
	employees := u.visibleEmployees()
	if u.screen != screenEmployees || u.selected < 0 || u.selected >= len(employees) {
		return nil
	}
	return &employees[u.selected]
}

func (u *UI) selectedTask() *model.Task {
	if u.screen != screenTasks || u.selected < 0 || u.selected >= len(u.tasks) {
		return nil
	}
	return &u.tasks[u.selected]
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < u.listLen()-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.screen != screenEmployees {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search employees"
		view.Clear()
		fmt.Fprint(view, u.query)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	return nil
}

func (u *UI) submitSearch(_ *gocui.Gui, view *gocui.View) error {
	query := ""
	if view != nil {
		query = view.Buffer()
	}
	u.applySearch(query)
	return nil
}

func (u *UI) applySearch(query string) {
	u.query = strings.TrimSpace(query)
	u.searchActive = false
	u.selected = 0
}

func (u *UI) cancelSearch(_ *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	return nil
}

func (u *UI) addItem(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.screen {
	case screenEmployees:
		u.form = newEmployeeForm(nil)
	case screenTasks:
		u.form = newTaskForm(nil, u.employees)
	}
	return nil
}

// editSelected fetches the latest copy of the selected record before opening
// the editor.
func (u *UI) editSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.screen {
	case screenEmployees:
		selected := u.selectedEmployee()
		if selected == nil {
			return nil
		}
		id := selected.ID
		u.background(func(ctx context.Context) func() {
			employee, err := u.clients.Employees.GetByID(ctx, id)
			return func() {
				if err != nil {
					u.fail(err, views.MsgEmployeeFailed)
					return
				}
				if u.screen == screenEmployees && !u.inputActive() {
					u.form = newEmployeeForm(&employee)
				}
			}
		})
	case screenTasks:
		selected := u.selectedTask()
		if selected == nil {
			return nil
		}
		id := selected.ID
		u.background(func(ctx context.Context) func() {
			task, err := u.clients.Tasks.GetByID(ctx, id)
			return func() {
				if err != nil {
					u.fail(err, views.MsgTaskFailed)
					return
				}
				if u.screen == screenTasks && !u.inputActive() {
					u.form = newTaskForm(&task, u.employees)
				}
			}
		})
	}
	return nil
}

func (u *UI) deleteSelected(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.screen {
	case screenEmployees:
		if employee := u.selectedEmployee(); employee != nil {
			id := employee.ID
			u.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete employee %s? (y/n)", employee.Name),
				action: func() { u.removeItem(u.clients.Employees.Remove, id, views.MsgEmployeeDelFailed) },
			}
		}
	case screenTasks:
		if task := u.selectedTask(); task != nil {
			id := task.ID
			u.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete task %s? (y/n)", task.Title),
				action: func() { u.removeItem(u.clients.Tasks.Remove, id, views.MsgTaskDelFailed) },
			}
		}
	}
	return nil
}

func (u *UI) removeItem(remove func(context.Context, int64) error, id int64, failure string) {
	u.background(func(ctx context.Context) func() {
		err := remove(ctx, id)
		return func() {
			if err != nil {
				u.fail(err, failure)
				return
			}
			u.reloadScreen()
		}
	})
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, len(u.confirm.prompt)+4)
	x0 := (maxX - width) / 2
	y0 := (maxY - 2) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+2, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Confirm"
	view.FrameColor = gocui.ColorRed
	view.Clear()
	fmt.Fprint(view, u.confirm.prompt)
	return nil
}

func (u *UI) confirmYes(_ *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	action := u.confirm.action
	u.confirm = nil
	action()
	return nil
}

func (u *UI) confirmNo(_ *gocui.Gui, _ *gocui.View) error {
	u.confirm = nil
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	lines, cursorY, cursorX := u.formLines()

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(len(lines)+1, max(maxY-2, 4))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = u.formTitle()
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	view.Clear()
	fmt.Fprint(view, strings.Join(lines, "\n"))
	view.SetCursor(cursorX, cursorY)
	return nil
}

func (u *UI) formTitle() string {
	form := u.form
	switch form.kind {
	case formLogin:
		if form.registering {
			return "Register"
		}
		return "Sign in"
	case formEmployee:
		if form.id != 0 {
			return "Edit Employee"
		}
		return "New Employee"
	default:
		if form.id != 0 {
			return "Edit Task"
		}
		return "New Task"
	}
}

// formLines renders the open form and reports where the cursor belongs.
func (u *UI) formLines() (lines []string, cursorY, cursorX int) {
	form := u.form
	for index, field := range form.fields {
		prefix := "  "
		if index == form.index {
			prefix = "> "
		}
		value := field.Value
		if field.Masked {
			value = strings.Repeat("*", len([]rune(value)))
		}
		display := value
		if form.kind == formTask && index == fieldEmployee {
			if employee := form.picked(u.employees); employee != nil {
				display = fmt.Sprintf("%s [pick: %s]", value, formatPick(*employee))
			} else {
				display = fmt.Sprintf("%s [no match]", value)
			}
		}
		if index == form.index {
			cursorY = len(lines)
			cursorX = len([]rune(prefix+field.Label+": ")) + len([]rune(value))
		}
		lines = append(lines, fmt.Sprintf("%s%s: %s", prefix, field.Label, display))
		if msg := form.errors[field.Key]; msg != "" {
			lines = append(lines, "    ! "+msg)
		}
	}
	if form.submitting {
		lines = append(lines, "", "Working...")
	} else if form.message != "" {
		lines = append(lines, "", form.message)
	}
	return lines, cursorY, cursorX
}

func (u *UI) nextFormField(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	return nil
}

func (u *UI) toggleRegister(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.form.kind != formLogin || u.form.submitting {
		return nil
	}
	u.form.toggleRegistering()
	return nil
}

// cancelForm closes editors. The login form cannot be dismissed.
func (u *UI) cancelForm(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.form.kind == formLogin {
		return nil
	}
	u.form = nil
	return nil
}

func (u *UI) submitForm(_ *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.form.submitting {
		return nil
	}
	switch u.form.kind {
	case formLogin:
		u.submitLogin()
	case formEmployee:
		u.submitEmployee()
	case formTask:
		u.submitTask()
	}
	return nil
}

func (u *UI) submitLogin() {
	form := u.form
	input := form.loginInput()
	form.message = ""
	if err := forms.CheckLogin(input); err != nil {
		form.errors = forms.FieldErrors(err)
		return
	}
	form.errors = nil
	form.submitting = true
	username := strings.TrimSpace(input.Username)

	u.background(func(ctx context.Context) func() {
		var err error
		if input.Registering {
			_, err = u.clients.Auth.RegisterAndLogin(ctx, username, input.Password)
		} else {
			_, err = u.clients.Auth.Login(ctx, username, input.Password)
		}
		return func() {
			if u.form != form {
				return
			}
			form.submitting = false
			if err != nil {
				u.log("login").Warn("sign in failed", "username", username, "registering", input.Registering, "error", err)
				message := views.LoginMessage(err, input.Registering)
				var registered *apiclient.RegisteredLoginError
				if errors.As(err, &registered) {
					form.toggleRegistering()
				}
				form.message = message
				return
			}
			u.form = nil
			u.navigate(screenDashboard)
		}
	})
}

func (u *UI) submitEmployee() {
	form := u.form
	employee, err := forms.ParseEmployee(form.employeeInput())
	if err != nil {
		form.errors = forms.FieldErrors(err)
		return
	}
	form.errors = nil
	form.submitting = true

	u.background(func(ctx context.Context) func() {
		var err error
		if form.id == 0 {
			_, err = u.clients.Employees.Create(ctx, employee)
		} else {
			employee.ID = form.id
			_, err = u.clients.Employees.Update(ctx, form.id, employee)
		}
		return func() {
			u.finishSave(form, err, views.MsgEmployeeSaveFailed)
		}
	})
}

func (u *UI) submitTask() {
	form := u.form
	task, err := forms.ParseTask(form.taskInput(u.employees))
	if err != nil {
		form.errors = forms.FieldErrors(err)
		return
	}
	form.errors = nil
	form.submitting = true

	u.background(func(ctx context.Context) func() {
		var err error
		if form.id == 0 {
			_, err = u.clients.Tasks.Create(ctx, task)
		} else {
			task.ID = form.id
			_, err = u.clients.Tasks.Update(ctx, form.id, task)
		}
		return func() {
			u.finishSave(form, err, views.MsgTaskSaveFailed)
		}
	})
}

func (u *UI) finishSave(form *formState, err error, failure string) {
	if u.form != form {
		return
	}
	form.submitting = false
	if err != nil {
		u.fail(err, failure)
		return
	}
	u.form = nil
	u.status = ""
	u.reloadScreen()
}

func (u *UI) logout(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.screen == screenLogin {
		return nil
	}
	if err := u.clients.Auth.Logout(u.ctx); err != nil {
		u.log("logout").Error("clear session", "error", err)
		u.status = err.Error()
	}
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(_ *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	return nil
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive || u.confirm != nil
}

func (u *UI) quitKey(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.quit(gui, view)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Screens:",
		"  1 Dashboard | 2 Employees | 3 Tasks",
		"  j/k or arrows move selection",
		"",
		"Actions:",
		"  a add | e or enter edit | d delete (asks first)",
		"  / search employees by name, email or position",
		"  r reload | L log out",
		"",
		"Forms:",
		"  tab/arrows next field | enter save | esc cancel",
		"  space/left/right cycle status",
		"  type to search employees, left/right to pick",
		"  ctrl-r switch between sign in and register",
		"",
		"Other:",
		"  ? help | esc/q close help | q quit | ctrl-c quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}
