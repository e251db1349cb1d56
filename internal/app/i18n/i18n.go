// Package i18n holds the fr/en message catalog. Keys are the English texts;
// French is the default language of the platform.
package i18n

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	FR      = "fr"
	EN      = "en"
	Default = FR
)

var (
	supported = []language.Tag{language.French, language.English}
	matcher   = language.NewMatcher(supported)
	cat       = catalog.NewBuilder(catalog.Fallback(language.French))
	known     = map[string]struct{}{}
)

// French translations. English uses the key itself.
var french = map[string]string{
	"Home":                                            "Accueil",
	"Forum":                                           "Forum",
	"Dashboard":                                       "Tableau de bord",
	"Profile":                                         "Profil",
	"Notifications":                                   "Notifications",
	"Login":                                           "Connexion",
	"Register":                                        "Inscription",
	"Logout":                                          "Déconnexion",
	"Email":                                           "E-mail",
	"Password":                                        "Mot de passe",
	"Name":                                            "Nom",
	"Role":                                            "Rôle",
	"student":                                         "élève",
	"teacher":                                         "enseignant",
	"admin":                                           "administrateur",
	"Branch":                                          "Branche",
	"Field of study (optional)":                       "Filière / Spécialité (optionnel)",
	"Level":                                           "Niveau",
	"Bio":                                             "Bio",
	"Establishment":                                   "Établissement",
	"Objectives":                                      "Objectifs",
	"Avatar URL":                                      "URL de l'avatar",
	"Save":                                            "Enregistrer",
	"Follow":                                          "Suivre",
	"Unfollow":                                        "Ne plus suivre",
	"Mark as read":                                    "Marquer comme lu",
	"Mark all as read":                                "Tout marquer comme lu",
	"No notifications":                                "Aucune notification",
	"Pending teachers":                                "Enseignants en attente",
	"No pending teachers":                             "Aucun enseignant en attente",
	"Validate":                                        "Valider",
	"Teacher validated":                               "Enseignant validé",
	"Topics":                                          "Sujets",
	"No topics yet":                                   "Aucun sujet pour le moment",
	"Profile updated":                                 "Profil mis à jour",
	"Language":                                        "Langue",
	"Welcome, %s":                                     "Bienvenue, %s",
	"%d unread notifications":                         "%d notifications non lues",
	"Invalid email or password":                       "E-mail ou mot de passe incorrect",
	"Registration failed":                             "L'inscription a échoué",
	"invalid registration data":                       "Données d'inscription invalides",
	"Unable to reach the server. Please try again.":   "Impossible de joindre le serveur. Veuillez réessayer.",
	"Something went wrong":                            "Une erreur est survenue",
	"Could not update profile":                        "Impossible de mettre à jour le profil",
	"Session changed, profile not saved":              "Session modifiée, profil non enregistré",
	"User not found":                                  "Utilisateur introuvable",
	"Name is required":                                "Le nom est obligatoire",
	"Teacher validation failed":                       "La validation a échoué",
	"Could not update follow status":                  "Impossible de modifier l'abonnement",
	"Your session has expired. Please sign in again.": "Votre session a expiré. Veuillez vous reconnecter.",
	"Already have an account?":                        "Déjà un compte ?",
	"No account yet?":                                 "Pas encore de compte ?",
	"Views":                                           "Vues",
	"Replies":                                         "Réponses",
	"Statistics":                                      "Statistiques",
	"total users":                                     "utilisateurs",
	"total teachers":                                  "enseignants",
	"total students":                                  "élèves",
	"total topics":                                    "sujets",
	"total assignments":                               "devoirs",
	"completed assignments":                           "devoirs terminés",
	"average score":                                   "score moyen",
	"followers":                                       "abonnés",
	"following":                                       "abonnements",
	"Available assignments":                           "Devoirs disponibles",
	"My assignments":                                  "Mes devoirs",
	"No assignments available":                        "Aucun devoir disponible",
	"No assignments":                                  "Aucun devoir",
	"Due %s":                                          "À rendre le %s",
	"Notification settings":                           "Paramètres de notification",
	"Email notifications":                             "Notifications par e-mail",
	"In-app notifications":                            "Notifications dans l'application",
	"New posts":                                       "Nouvelles publications",
	"New assignments":                                 "Nouveaux devoirs",
	"New followers":                                   "Nouveaux abonnés",
	"Forum replies":                                   "Réponses du forum",
	"Filter":                                          "Filtrer",
	"All":                                             "Tous",
	"Subject":                                         "Matière",
	"Could not save notification settings":            "Impossible d'enregistrer les paramètres",
}

func init() {
	for key, fr := range french {
		known[key] = struct{}{}
		_ = cat.SetString(language.French, key, fr)
		_ = cat.SetString(language.English, key, key)
	}
}

// Normalize maps any language hint to a supported code, defaulting to fr.
func Normalize(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case EN:
		return EN
	case FR:
		return FR
	}
	return Default
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

func tag(lang string) language.Tag {
	if Normalize(lang) == EN {
		return language.English
	}
	return language.French
}

// Printer returns a printer for lang backed by the catalog.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(tag(lang), message.Catalog(cat))
}

// T translates key, formatting args into it.
func T(lang, key string, args ...any) string {
	return Printer(lang).Sprintf(key, args...)
}

// Text translates s when it is a catalog key and returns it unchanged
// otherwise. Backend messages go through here, so s is never used as a
// format string.
func Text(lang, s string) string {
	if _, ok := known[s]; !ok {
		return s
	}
	return Printer(lang).Sprintf(s)
}

// Title capitalises s with the casing rules of lang.
func Title(lang, s string) string {
	return cases.Title(tag(lang)).String(s)
}

// Humanize turns a backend key such as "total_users" into a label,
// "Total users" in English and "Utilisateurs" in French.
func Humanize(lang, key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	if _, ok := known[s]; ok {
		s = Printer(lang).Sprintf(s)
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
