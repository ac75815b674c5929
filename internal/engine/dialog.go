package engine

// =============================================================================
// DIALOG STATE
// =============================================================================

// Dialog is the boolean-with-callback primitive behind every modal. The same
// shape serves create, edit, delete, restore, hard-delete and bulk-delete so
// the orchestrator and rendering layer never branch on modal purpose.
type Dialog struct {
	open     bool
	onChange func(open bool)
}

// NewDialog creates a closed dialog. onChange may be nil.
func NewDialog(onChange func(open bool)) *Dialog {
	return &Dialog{onChange: onChange}
}

func (d *Dialog) IsOpen() bool { return d.open }

func (d *Dialog) Open()  { d.set(true) }
func (d *Dialog) Close() { d.set(false) }

func (d *Dialog) Toggle() { d.set(!d.open) }

func (d *Dialog) set(open bool) {
	if d.open == open {
		return
	}
	d.open = open
	if d.onChange != nil {
		d.onChange(open)
	}
}

// Dialogs is the six-track dialog set of one entity page. Ordering
// discipline (only one user-initiated dialog open at a time) is the
// caller's responsibility; the state model does not enforce it.
type Dialogs struct {
	Create     *Dialog
	Edit       *Dialog
	Delete     *Dialog
	Restore    *Dialog
	HardDelete *Dialog
	BulkDelete *Dialog
}

// NewDialogs creates the full set, all closed.
func NewDialogs() *Dialogs {
	return &Dialogs{
		Create:     NewDialog(nil),
		Edit:       NewDialog(nil),
		Delete:     NewDialog(nil),
		Restore:    NewDialog(nil),
		HardDelete: NewDialog(nil),
		BulkDelete: NewDialog(nil),
	}
}

// CloseAll closes every dialog in the set.
func (d *Dialogs) CloseAll() {
	d.Create.Close()
	d.Edit.Close()
	d.Delete.Close()
	d.Restore.Close()
	d.HardDelete.Close()
	d.BulkDelete.Close()
}
