package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"library-ledger/access"
	"library-ledger/library"
)

// shell is the interactive menu. It reads one answer per line from its
// scanner; passwords are masked when input is a terminal.
type shell struct {
	sc        *bufio.Scanner
	out       io.Writer
	lib       *library.LibraryManager
	acc       *access.Service
	ebooksDir string

	readPassword func(prompt string) (string, error)
}

type menuItem struct {
	label string
	need  access.Capability
	// run is nil for Logout.
	run func()
}

func newShell(in io.Reader, out io.Writer, lib *library.LibraryManager, acc *access.Service, ebooksDir string) *shell {
	sh := &shell{
		sc:        bufio.NewScanner(in),
		out:       out,
		lib:       lib,
		acc:       acc,
		ebooksDir: ebooksDir,
	}
	sh.readPassword = sh.scanPassword
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.readPassword = func(prompt string) (string, error) {
			return readMaskedPassword(f, out, prompt)
		}
	}
	return sh
}

// readMaskedPassword reads a password without echoing it.
func readMaskedPassword(f *os.File, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out) // newline after password input
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (sh *shell) scanPassword(prompt string) (string, error) {
	s, ok := sh.prompt(prompt)
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

// prompt prints label and reads one trimmed line. It returns false once input
// is exhausted.
func (sh *shell) prompt(label string) (string, bool) {
	sh.printf("%s", label)
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) promptID(label string) (int64, bool) {
	s, ok := sh.prompt("Enter " + label + ": ")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		sh.printf("Invalid %s: %s\n", label, s)
		return 0, false
	}
	return id, true
}

// promptMember reads a member id. Ledger member ids are opaque, so anything
// but a blank line is accepted.
func (sh *shell) promptMember() (string, bool) {
	s, ok := sh.prompt("Enter Member ID: ")
	if !ok {
		return "", false
	}
	if s == "" {
		sh.printf("Member ID is required.\n")
		return "", false
	}
	return s, true
}

func (sh *shell) run() {
	sh.printf("Welcome to the Library Management System!\n")
	for {
		sh.printf("\n1. Register\n2. Login\n3. Exit\n")
		choice, ok := sh.prompt("Enter choice: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			sh.handleRegister()
		case "2":
			sess := sh.handleLogin()
			if sess != nil && !sh.sessionMenu(sess) {
				return
			}
		case "3":
			sh.printf("Goodbye!\n")
			return
		default:
			sh.printf("Invalid choice!\n")
		}
	}
}

// menuFor lists what sess may do. The capability check happens here, once;
// handlers do not repeat it.
func (sh *shell) menuFor(sess *access.Session) []menuItem {
	all := []menuItem{
		{"View Books", access.CapBrowse, sh.handleViewBooks},
		{"Issue Book", access.CapCirculate, sh.handleIssueBook},
		{"Return Book", access.CapCirculate, sh.handleReturnBook},
		{"Most Borrowed Books Report", access.CapBrowse, sh.handleReport},
		{"List E-Books", access.CapBrowse, sh.handleListEBooks},
		{"Logout", access.CapBrowse, nil},
		{"Add Book", access.CapManageCatalog, sh.handleAddBook},
		{"Remove Book", access.CapManageCatalog, sh.handleRemoveBook},
		{"Add Member", access.CapManageCatalog, sh.handleAddMember},
		// Append only: menu numbers above must not change.
		{"Search Books", access.CapBrowse, sh.handleSearchBooks},
		{"Member Loans", access.CapCirculate, sh.handleMemberLoans},
		{"View Members", access.CapManageCatalog, sh.handleViewMembers},
	}
	items := make([]menuItem, 0, len(all))
	for _, it := range all {
		if sess.Can(it.need) {
			items = append(items, it)
		}
	}
	return items
}

// sessionMenu runs until logout. It returns false if input ran out.
func (sh *shell) sessionMenu(sess *access.Session) bool {
	items := sh.menuFor(sess)
	for {
		sh.printf("\nLibrary Menu (%s, %s)\n", sess.Username, sess.Role)
		for i, it := range items {
			sh.printf("%d. %s\n", i+1, it.label)
		}
		choice, ok := sh.prompt("Enter choice: ")
		if !ok {
			return false
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(items) {
			sh.printf("Invalid choice!\n")
			continue
		}
		it := items[n-1]
		if it.run == nil {
			sh.printf("Logging out...\n")
			return true
		}
		it.run()
	}
}

func (sh *shell) handleRegister() {
	username, ok := sh.prompt("Enter new username: ")
	if !ok {
		return
	}
	password, err := sh.readPassword("Enter new password: ")
	if err != nil {
		sh.printf("Error reading password: %v\n", err)
		return
	}
	role, ok := sh.prompt("Enter role (admin/user): ")
	if !ok {
		return
	}

	err = sh.acc.Register(username, password, role)
	switch {
	case errors.Is(err, access.ErrUsernameTaken):
		sh.printf("Username already exists! Try a different one.\n")
	case errors.Is(err, access.ErrInvalidRole):
		sh.printf("Invalid role! Choose either 'admin' or 'user'.\n")
	case err != nil:
		sh.printf("Error: %v\n", err)
	default:
		sh.printf("User registered successfully!\n")
	}
}

func (sh *shell) handleLogin() *access.Session {
	username, ok := sh.prompt("Enter username: ")
	if !ok {
		return nil
	}
	password, err := sh.readPassword("Enter password: ")
	if err != nil {
		sh.printf("Error reading password: %v\n", err)
		return nil
	}

	sess, err := sh.acc.Login(username, password)
	if err != nil {
		if errors.Is(err, access.ErrInvalidCredentials) {
			sh.printf("Invalid credentials!\n")
		} else {
			sh.printf("Error: %v\n", err)
		}
		return nil
	}
	sh.printf("Login successful! Welcome, %s.\n", sess.Username)
	return sess
}

func (sh *shell) handleViewBooks() {
	books, err := sh.lib.GetAllBooks()
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		sh.printf("No books in library.\n")
		return
	}
	sh.printf("\nAvailable Books:\n")
	printBooks(sh.out, books)
}

func (sh *shell) handleIssueBook() {
	bookID, ok := sh.promptID("Book ID")
	if !ok {
		return
	}
	memberID, ok := sh.promptMember()
	if !ok {
		return
	}

	loan, err := sh.lib.Issue(bookID, memberID)
	if err != nil {
		sh.printf("%s\n", describe(err))
		return
	}
	sh.printf("Book issued successfully! Due date: %s\n", loan.DueDate.Format(time.DateOnly))
}

func (sh *shell) handleReturnBook() {
	memberID, ok := sh.promptMember()
	if !ok {
		return
	}
	bookID, ok := sh.promptID("Book ID")
	if !ok {
		return
	}

	receipt, err := sh.lib.Return(bookID, memberID)
	if err != nil {
		sh.printf("%s\n", describe(err))
		return
	}
	sh.printf("Book returned successfully! Fine: $%d\n", receipt.Loan.Fine)
	if receipt.DaysLate > 0 {
		sh.printf("Returned %d day(s) late.\n", receipt.DaysLate)
	}
	if !receipt.Restocked {
		sh.printf("Book %d is no longer in the catalog; no copy was restocked.\n", bookID)
	}
}

func (sh *shell) handleReport() {
	ranked, err := sh.lib.RankBorrowed()
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if err := renderReport(sh.out, ranked, "text"); err != nil {
		sh.printf("Error: %v\n", err)
	}
}

func (sh *shell) handleListEBooks() {
	names, err := library.ListEBooks(sh.ebooksDir)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	printEBooks(sh.out, names, sh.ebooksDir)
}

func (sh *shell) handleSearchBooks() {
	query, ok := sh.prompt("Query: ")
	if !ok {
		return
	}
	books, err := sh.lib.SearchBooks(query)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if len(books) == 0 {
		sh.printf("No books found matching '%s'.\n", query)
		return
	}
	sh.printf("Found %d book(s) matching '%s':\n", len(books), query)
	printBooks(sh.out, books)
}

func (sh *shell) handleMemberLoans() {
	memberID, ok := sh.promptMember()
	if !ok {
		return
	}
	loans, err := sh.lib.OutstandingLoans(memberID)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if len(loans) == 0 {
		sh.printf("Member %s has no outstanding loans.\n", memberID)
		return
	}

	sh.printf("%-8s %-12s %-12s %s\n", "Book ID", "Issued", "Due", "Status")
	sh.printf("%s\n", strings.Repeat("-", 50))
	for _, l := range loans {
		sh.printf("%-8d %-12s %-12s %s\n",
			l.BookID,
			l.IssueDate.Format(time.DateOnly),
			l.DueDate.Format(time.DateOnly),
			l.Status())
	}
}

func (sh *shell) handleAddBook() {
	title, ok := sh.prompt("Enter book title: ")
	if !ok {
		return
	}
	author, ok := sh.prompt("Enter author: ")
	if !ok {
		return
	}
	copiesStr, ok := sh.prompt("Enter number of copies: ")
	if !ok {
		return
	}
	copies, err := strconv.Atoi(copiesStr)
	if err != nil {
		sh.printf("Invalid number of copies: %s\n", copiesStr)
		return
	}

	id, err := sh.lib.AddBook(title, author, copies)
	if err != nil {
		sh.printf("%s\n", describe(err))
		return
	}
	sh.printf("Book added successfully! (ID: %d)\n", id)
}

func (sh *shell) handleRemoveBook() {
	id, ok := sh.promptID("Book ID")
	if !ok {
		return
	}
	if err := sh.lib.RemoveBook(id); err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	sh.printf("Book removed successfully!\n")
}

func (sh *shell) handleAddMember() {
	name, ok := sh.prompt("Enter member name: ")
	if !ok {
		return
	}
	id, err := sh.lib.AddMember(name)
	if err != nil {
		sh.printf("%s\n", describe(err))
		return
	}
	sh.printf("Member added successfully! (ID: %d)\n", id)
}

func (sh *shell) handleViewMembers() {
	members, err := sh.lib.GetAllMembers()
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	if len(members) == 0 {
		sh.printf("No members registered.\n")
		return
	}
	sh.printf("\nRegistered Members:\n")
	sh.printf("%-5s %-30s\n", "ID", "Name")
	sh.printf("%s\n", strings.Repeat("-", 36))
	for _, m := range members {
		sh.printf("%-5d %-30s\n", m.ID, truncateString(m.Name, 30))
	}
}

// describe turns a library error into the message shown at the menu.
func describe(err error) string {
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		return "Book not found."
	case errors.Is(err, library.ErrMemberNotFound):
		return "Member not found."
	case errors.Is(err, library.ErrNoCopiesAvailable):
		return "Book not available."
	case errors.Is(err, library.ErrDuplicateLoan):
		return "Member already has this book on loan."
	case errors.Is(err, library.ErrNoMatchingLoan):
		return "No matching record found."
	case errors.Is(err, library.ErrValidation):
		return fmt.Sprintf("Invalid input: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
