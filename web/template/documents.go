//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package template

var Terms = Document{
	Title:   "Terms of Service",
	Updated: "2025-09-01",
	Sections: []Section{
		{
			Heading: "Accounts",
			Paragraphs: []string{
				"You need an account to post or comment. Keep your password to yourself; you are responsible for what happens under your account.",
				"You may withdraw at any time from your profile settings. Withdrawal signs you out everywhere and hides your profile.",
			},
		},
		{
			Heading: "Content",
			Paragraphs: []string{
				"You keep the rights to what you post. By posting you let the community display it to other members.",
				"Posts that harass other members or break the law will be removed.",
			},
		},
		{
			Heading: "Sessions",
			Paragraphs: []string{
				"Signing in on a new device ends your session on the previous one.",
			},
		},
	},
}

var Privacy = Document{
	Title:   "Privacy Policy",
	Updated: "2025-09-01",
	Sections: []Section{
		{
			Heading: "What we keep",
			Paragraphs: []string{
				"Your email address, nickname, a salted hash of your password, and any profile image you upload.",
				"While you are signed in we keep one session record, which is deleted when you sign out.",
			},
		},
		{
			Heading: "Cookies",
			Paragraphs: []string{
				"Two HttpOnly cookies hold your session tokens. They are not readable by scripts and are never used for tracking.",
			},
		},
		{
			Heading: "Withdrawal",
			Paragraphs: []string{
				"When you withdraw, your account and profile image are marked deleted and can no longer be signed in to.",
			},
		},
	},
}
